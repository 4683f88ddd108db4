// Package app assembles the application object graph.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/studyhall-app/studyhall/internal/adapter/httpapi"
	"github.com/studyhall-app/studyhall/internal/adapter/memory"
	"github.com/studyhall-app/studyhall/internal/adapter/repository"
	"github.com/studyhall-app/studyhall/internal/infrastructure/config"
	"github.com/studyhall-app/studyhall/internal/infrastructure/database"
	"github.com/studyhall-app/studyhall/internal/infrastructure/server"
	"github.com/studyhall-app/studyhall/internal/llm"
	"github.com/studyhall-app/studyhall/internal/usecase"
	"github.com/studyhall-app/studyhall/internal/usecase/pipeline"
)

// Container aggregates the initialized application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Pipeline *pipeline.Service
	Store    *memory.SessionStore
	Server   *server.Server
}

// Initialize builds the full dependency graph from configuration. The
// returned cleanup closes the database pool.
func Initialize() (*Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	db, closeDB, err := database.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(db); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	deckRepo := repository.NewDeckRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	recordRepo := repository.NewStudyRecordRepository(db)

	client := llm.NewClient(llm.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.Model,
		Timeout: cfg.Ollama.Timeout,
	})

	ingest := pipeline.NewService(pipeline.Config{
		Workers:       cfg.Pipeline.Workers,
		QueueSize:     cfg.Pipeline.QueueSize,
		StatusTTL:     cfg.Pipeline.StatusTTL,
		MaxInputChars: cfg.Pipeline.MaxInputChars,
		FetchTimeout:  cfg.Pipeline.FetchTimeout,
		SweepInterval: cfg.Pipeline.SweepInterval,
	}, docRepo, llm.NewSummarizer(client), logger)

	store := memory.NewSessionStore()

	users := usecase.NewUserUsecase(userRepo)
	documents := usecase.NewDocumentUsecase(docRepo, ingest, logger)
	decks := usecase.NewDeckUsecase(deckRepo, docRepo, recordRepo, llm.NewCardGenerator(client))
	sessions := usecase.NewSessionUsecase(store, deckRepo, recordRepo, logger)

	handlers := httpapi.NewHandlers(
		httpapi.AuthConfig{
			Secret:   cfg.Auth.Secret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
		cfg.Server.RateLimit,
		cfg.Server.RateBurst,
		logger,
		users,
		documents,
		decks,
		sessions,
	)

	srv := server.NewServer(cfg, logger, httpapi.NewRouter(handlers))

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Pipeline: ingest,
		Store:    store,
		Server:   srv,
	}, closeDB, nil
}
