package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"colony-server/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	Colonies  int    `json:"colonies"`
}

// StatusChecker reports a backing service's state.
type StatusChecker interface {
	Status(ctx context.Context) string
}

// ColonyCounter reports how many colonies are hosted.
type ColonyCounter interface {
	Count() int
}

type HealthHandler struct {
	db       StatusChecker
	redis    StatusChecker
	colonies ColonyCounter
}

func NewHealthHandler(db, redis StatusChecker, colonies ColonyCounter) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, colonies: colonies}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  status(ctx, h.db),
		Redis:     status(ctx, h.redis),
		Colonies:  h.colonies.Count(),
	}
	if resp.Database == "disconnected" || resp.Redis == "disconnected" {
		resp.Status = "degraded"
		logger.Warn("Health check degraded", "database", resp.Database, "redis", resp.Redis)
	}

	response.Success(w, http.StatusOK, resp)
}

func status(ctx context.Context, c StatusChecker) string {
	if c == nil {
		return "disabled"
	}
	return c.Status(ctx)
}
