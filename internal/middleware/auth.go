package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"colony-server/internal/shared/cookies"
	"colony-server/internal/shared/errors"
	"colony-server/internal/shared/response"
	"colony-server/internal/shared/token"
)

type contextKey string

const ColonyContextKey contextKey = "colony"

// TokenValidator checks a colony access token.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

func JWTMiddleware(validator TokenValidator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "jwt",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing JWT authentication")

		raw := bearerToken(r)
		if raw == "" {
			// Get colony token from cookie
			cookie, err := r.Cookie(cookies.ColonyTokenName)
			if err != nil {
				response.Error(w, r, logger, errors.Unauthorized("colony token required"))
				return
			}
			raw = cookie.Value
		}

		claims, err := validator.Validate(raw)
		if err != nil {
			response.Error(w, r, logger, errors.Unauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), ColonyContextKey, claims)
		logger.Debug("JWT authentication successful", "colony_id", claims.ColonyID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetColonyFromContext returns the validated claims, or nil.
func GetColonyFromContext(r *http.Request) *token.Claims {
	if claims, ok := r.Context().Value(ColonyContextKey).(*token.Claims); ok {
		return claims
	}
	return nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
