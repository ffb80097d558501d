package middleware

import (
	"net/http"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/logger"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Recover turns a handler panic into a logged 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.FromCtx(r.Context()).Error("panic in handler",
					zap.Any("panic", p),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, apperror.KindInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Chain applies mws so that the first one is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func writeError(w http.ResponseWriter, status int, kind apperror.Kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsoniter.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": string(kind)})
}
