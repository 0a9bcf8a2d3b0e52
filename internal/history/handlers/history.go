package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"colony-server/internal/history"
	"colony-server/internal/shared/errors"
	"colony-server/internal/shared/response"
)

type HistoryHandler struct {
	service *history.Service
}

func NewHistoryHandler(service *history.Service) *HistoryHandler {
	return &HistoryHandler{service: service}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_history")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, r, logger, errors.Validationf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	records, err := h.service.ListRecent(ctx, limit)
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to load colony history", err))
		return
	}

	response.Success(w, http.StatusOK, records)
}
