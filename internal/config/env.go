package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	GenModel     string
	JWTSecret    string
	Port         string

	// Remote parsing service (LlamaParse-compatible HTTP API).
	ParserBaseURL string
	ParserAPIKey  string

	// Crawl engine (Firecrawl-compatible HTTP API).
	CrawlerBaseURL string
	CrawlerAPIKey  string

	// Ingestion tuning. These are contract constants of the pipeline and
	// deliberately configuration, not literals in the code.
	FetchTimeout      time.Duration // website direct-fetch budget
	MaxContentLength  int           // content cap before truncation marker
	ParseMaxRetries   int           // remote-parse attempt ceiling
	ParseRetryDelay   time.Duration // fixed delay between parse attempts
	CrawlPollInterval time.Duration // delay between crawl status checks
	CrawlMaxPolls     int           // crawl status check ceiling
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "client-documents"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 1536),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		Port:         getEnv("PORT", "8080"),

		ParserBaseURL: getEnv("PARSER_BASE_URL", "https://api.cloud.llamaindex.ai"),
		ParserAPIKey:  getEnv("PARSER_API_KEY", ""),

		CrawlerBaseURL: getEnv("CRAWLER_BASE_URL", "https://api.firecrawl.dev/v1"),
		CrawlerAPIKey:  getEnv("CRAWLER_API_KEY", ""),

		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxContentLength:  getEnvInt("MAX_CONTENT_LENGTH", 100000),
		ParseMaxRetries:   getEnvInt("PARSE_MAX_RETRIES", 3),
		ParseRetryDelay:   getEnvDuration("PARSE_RETRY_DELAY", 5*time.Second),
		CrawlPollInterval: getEnvDuration("CRAWL_POLL_INTERVAL", 3*time.Second),
		CrawlMaxPolls:     getEnvInt("CRAWL_MAX_POLLS", 10),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
