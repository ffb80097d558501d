package middleware

import (
	"net/http"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"

	"go.uber.org/zap"
)

// TokenParser verifies an access token and returns the identity it carries.
type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// Auth attaches the verified identity to the request context. Requests
// without a token pass through anonymously; the service layer decides whether
// that is acceptable. A token that is present but invalid is rejected here.
func Auth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.ExtractAccessToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := tokens.Parse(raw)
			if err != nil {
				logger.FromCtx(r.Context()).Info("rejected access token", zap.Error(err))
				writeError(w, http.StatusUnauthorized, apperror.KindUnauthenticated, "invalid or expired token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), id)
			ctx = logger.WithUserID(ctx, id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
