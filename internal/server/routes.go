package server

import (
	"log/slog"
	"net/http"

	colonyHandlers "colony-server/internal/colony/handlers"
	"colony-server/internal/history"
	historyHandlers "colony-server/internal/history/handlers"
	"colony-server/internal/middleware"
	serverHandlers "colony-server/internal/server/handlers"
	"colony-server/internal/session"
	"colony-server/internal/shared/config"
	"colony-server/internal/shared/token"
)

type Routes struct {
	cfg            *config.Config
	db             serverHandlers.StatusChecker
	redis          serverHandlers.StatusChecker
	sessionService *session.Service
	historyService *history.Service
	issuer         *token.Issuer
	hub            *colonyHandlers.Hub
	logger         *slog.Logger
}

func NewRoutes(
	cfg *config.Config,
	db serverHandlers.StatusChecker,
	redis serverHandlers.StatusChecker,
	sessionService *session.Service,
	historyService *history.Service,
	issuer *token.Issuer,
	hub *colonyHandlers.Hub,
	logger *slog.Logger,
) *Routes {
	return &Routes{
		cfg:            cfg,
		db:             db,
		redis:          redis,
		sessionService: sessionService,
		historyService: historyService,
		issuer:         issuer,
		hub:            hub,
		logger:         logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.redis, r.sessionService)
	colonyHandler := colonyHandlers.NewColonyHandler(r.sessionService, r.issuer, r.cfg)
	historyHandler := historyHandlers.NewHistoryHandler(r.historyService)
	access := middleware.NewColonyAccessMiddleware(r.issuer)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.HandleFunc("/api/catalog", colonyHandler.GetCatalog)
	mux.Handle("/api/history", historyHandler)
	mux.HandleFunc("POST /api/colonies", colonyHandler.CreateColony)

	// Colony endpoints (token for that colony required)
	mux.Handle("GET /api/colonies/{id}", access.Require(http.HandlerFunc(colonyHandler.GetColony)))
	mux.Handle("DELETE /api/colonies/{id}", access.Require(http.HandlerFunc(colonyHandler.Abandon)))
	mux.Handle("POST /api/colonies/{id}/build", access.Require(http.HandlerFunc(colonyHandler.Build)))
	mux.Handle("POST /api/colonies/{id}/explore", access.Require(http.HandlerFunc(colonyHandler.Explore)))
	mux.Handle("GET /api/colonies/{id}/log", access.Require(http.HandlerFunc(colonyHandler.GetLog)))
	mux.Handle("GET /api/colonies/{id}/events", access.Require(http.HandlerFunc(r.hub.ServeEvents)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/catalog", "/api/history", "POST /api/colonies"},
		"colony_endpoints", []string{"/api/colonies/{id}", "/api/colonies/{id}/build", "/api/colonies/{id}/explore", "/api/colonies/{id}/log", "/api/colonies/{id}/events"},
	)

	return mux
}
