package app

import (
	"fmt"
	"net/http"

	"github.com/csfantasy/draft-engine/internal/config"
	"github.com/csfantasy/draft-engine/internal/infrastructure/backend"
	"github.com/csfantasy/draft-engine/internal/interfaces/httpapi"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	client := backend.NewClient(backend.ClientConfig{
		BaseURL:        cfg.BackendBaseURL,
		Token:          cfg.BackendToken,
		Timeout:        cfg.BackendTimeout,
		MaxRetries:     cfg.BackendMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.BackendCircuit,
	})

	draftSvc := usecase.NewDraftService(client, cfg.SnapshotTTL, logger)
	statsSvc := usecase.NewStatsService(client, cfg.StatsCacheTTL, cfg.StatsFetchConcurrency, logger)
	standingsSvc := usecase.NewStandingsService(client, cfg.StandingsCacheTTL, logger)

	handler := httpapi.NewHandler(draftSvc, statsSvc, standingsSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
