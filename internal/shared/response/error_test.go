package response

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"colony-server/internal/shared/errors"
)

func TestErrorStatusAndBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantType   string
		retryAfter string
	}{
		{"not found", errors.NotFound("colony not found"), http.StatusNotFound, "not_found", ""},
		{"validation", errors.Validation("module is required"), http.StatusBadRequest, "validation", ""},
		{"conflict", errors.WrapConflict("build rejected", stderrors.New("cell occupied")), http.StatusConflict, "conflict", ""},
		{"cooldown", errors.WrapRateLimited("exploration rejected", stderrors.New("cooling"), 1500*time.Millisecond), http.StatusTooManyRequests, "rate_limited", "2"},
		{"zero wait", errors.RateLimited("slow down", 0), http.StatusTooManyRequests, "rate_limited", "1"},
		{"capacity", errors.WrapExternal("colony capacity reached", stderrors.New("full")), http.StatusServiceUnavailable, "external", ""},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, "internal", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/colonies/x/build", nil)
			Error(rec, req, logger, tt.err)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("Retry-After = %q, want %q", got, tt.retryAfter)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.wantType || body.Code != tt.wantCode {
				t.Errorf("body = %+v", body)
			}
		})
	}
}
