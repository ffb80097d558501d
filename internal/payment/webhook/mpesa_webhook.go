package webhook

import (
	"io"
	"net/http"

	"bookstore-be/internal/logger"
	"bookstore-be/internal/payment"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const maxCallbackBody = 64 << 10

type Handler struct {
	PaymentSvc payment.Service
}

func NewWebhookHandler(paymentSvc payment.Service) *Handler {
	return &Handler{PaymentSvc: paymentSvc}
}

// CallbackHandler serves POST /callback. The provider always gets a 200 and a
// ResultCode 0 acknowledgment, whatever happened to the callback.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "webhook"),
		zap.String("provider", "MPESA"),
	)

	correlationID := r.URL.Query().Get("correlation_id")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBody))
	if err != nil {
		log.Warn("failed to read callback body", zap.Error(err))
	}

	ack, err := h.PaymentSvc.HandleCallback(r.Context(), correlationID, body)
	if err != nil {
		log.Error("callback handling failed",
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		ack = payment.Ack{ResultCode: 0, ResultDesc: "Callback received"}
	}

	log.Info("callback acknowledged",
		zap.String("correlation_id", correlationID),
		zap.String("outcome", string(ack.Outcome)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = jsoniter.NewEncoder(w).Encode(ack)
}
