package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/welcomechat/ingest/internal/api/handlers"
	appMiddleware "github.com/welcomechat/ingest/internal/api/middlewares"
	"github.com/welcomechat/ingest/internal/config"
	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/core/ingestion"
	"github.com/welcomechat/ingest/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(ctx context.Context, cfg *config.Config, db core.DbClient,
	pipeline *ingestion.Pipeline, documents *services.DocumentService,
	emb core.EmbeddingProvider, llm core.LLMProvider, activity ingestion.ActivityLogger) *Server {

	authHandler := handlers.NewAuthHandler(db)
	ingestHandler := handlers.NewIngestHandler(pipeline)
	jobHandler := handlers.NewJobHandler(db)
	docHandler := handlers.NewDocumentHandler(db, documents, activity)
	activityHandler := handlers.NewActivityHandler(db)
	chatHandler := handlers.NewChatHandler(db, emb, llm, services.NewQueryGuard(), activity)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)
			protected.Post("/ingest", ingestHandler.Ingest)
			protected.Get("/jobs/{jobID}", jobHandler.GetJob)
			protected.Get("/jobs", jobHandler.ListJobs)
			protected.Post("/documents/upload", docHandler.UploadDocument)
			protected.Get("/documents", docHandler.GetDocuments)
			protected.Delete("/links/{id}", docHandler.DeleteLink)
			protected.Get("/activities", activityHandler.ListActivities)
			protected.Post("/chat/query", chatHandler.Query)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
