// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/welcomechat/ingest/internal/config"
	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/core/activity"
	db "github.com/welcomechat/ingest/internal/core/database"
	"github.com/welcomechat/ingest/internal/core/ingestion"
	"github.com/welcomechat/ingest/internal/core/llm"
	objectclient "github.com/welcomechat/ingest/internal/core/object-client"
	"github.com/welcomechat/ingest/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Pipeline     *ingestion.Pipeline
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm provider, %w", err)
	}

	activityLogger := activity.NewLogger(dbClient)
	tracker := ingestion.NewTracker(dbClient)
	syncer := ingestion.NewContentSyncer(dbClient, geminiEmbedder, activityLogger)

	validator := ingestion.NewValidator(cfg.FetchTimeout)
	website := ingestion.NewWebsiteExtractor(cfg.FetchTimeout, cfg.MaxContentLength)

	parser := ingestion.NewParserClient(cfg.ParserBaseURL, cfg.ParserAPIKey, cfg.FetchTimeout)
	remote := ingestion.NewRemoteParseExtractor(parser, cfg.ParseMaxRetries, cfg.ParseRetryDelay)

	var crawl *ingestion.CrawlExtractor
	if cfg.CrawlerAPIKey != "" {
		crawlerAPI := ingestion.NewCrawlerClient(cfg.CrawlerBaseURL, cfg.CrawlerAPIKey, cfg.FetchTimeout)
		crawl = ingestion.NewCrawlExtractor(crawlerAPI, cfg.CrawlPollInterval, cfg.CrawlMaxPolls, cfg.MaxContentLength)
	}

	pipeline := ingestion.NewPipeline(tracker, validator, website, remote, crawl, syncer, activityLogger)

	uploadExtractor := ingestion.NewUploadExtractor(cfg.MaxContentLength, false)
	documentService := services.NewDocumentService(dbClient, objClient, cfg.BucketName,
		tracker, uploadExtractor, syncer, activityLogger)

	server := NewServer(ctx, cfg, dbClient, pipeline, documentService, geminiEmbedder, llmProvider, activityLogger)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Pipeline:     pipeline,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
