package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

var (
	errInvalidJSON = apperror.New(apperror.KindInvalidArgument, "request body must be valid JSON")
	errInvalidID   = apperror.New(apperror.KindInvalidArgument, "id must be a positive integer")
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	BookID    int64  `json:"book_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalidArgument,
		apperror.KindInsufficientStock,
		apperror.KindNoCopiesAvailable,
		apperror.KindInvalidStateTransition:
		return http.StatusBadRequest
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindPermissionDenied:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	case apperror.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errInvalidJSON
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errInvalidJSON
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}

	body := errorBody{Error: apperror.MessageOf(err), Kind: string(kind)}
	var stock *apperror.InsufficientStockError
	if errors.As(err, &stock) {
		body.BookID = stock.BookID
		body.Requested = stock.Requested
		body.Available = &stock.Available
	}
	writeJSON(w, status, body)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// identity is the zero Identity for anonymous requests; services reject it.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}
