package middleware

import (
	"log/slog"
	"net/http"

	"colony-server/internal/shared/errors"
	"colony-server/internal/shared/response"
)

// ColonyAccessMiddleware admits a request only when its token was issued
// for the colony named by the {id} path segment.
type ColonyAccessMiddleware struct {
	validator TokenValidator
}

func NewColonyAccessMiddleware(validator TokenValidator) *ColonyAccessMiddleware {
	return &ColonyAccessMiddleware{validator: validator}
}

func (m *ColonyAccessMiddleware) Require(next http.Handler) http.Handler {
	return JWTMiddleware(m.validator, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "colony_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetColonyFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("colony token required"))
			return
		}

		colonyID := r.PathValue("id")
		if colonyID == "" {
			response.Error(w, r, logger, errors.Validation("colony ID is required"))
			return
		}

		if claims.ColonyID != colonyID {
			logger.Warn("Token used for another colony",
				"token_colony_id", claims.ColonyID,
				"colony_id", colonyID)
			response.Error(w, r, logger, errors.Forbidden("token does not grant access to this colony"))
			return
		}

		next.ServeHTTP(w, r)
	}))
}
