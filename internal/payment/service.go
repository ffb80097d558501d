package payment

import (
	"context"
	"errors"
	"math"
	"time"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"
	"bookstore-be/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ackReceived = "Callback received"

	// cancelTimeout bounds the compensating update after a refused push. It
	// runs detached from the request so a disconnected client cannot skip it.
	cancelTimeout = 5 * time.Second
)

// Service correlates STK pushes with the callbacks that settle them. Each
// transaction leaves Pending at most once; later callbacks are acknowledged
// without touching state.
type Service interface {
	InitiatePayment(ctx context.Context, actor auth.Identity, amount float64, phone string) (InitiateResult, error)
	SettleCallback(ctx context.Context, correlationID string, resultCode int) (Ack, error)
	HandleCallback(ctx context.Context, correlationID string, body []byte) (Ack, error)
	GetTransaction(ctx context.Context, actor auth.Identity, id string) (Transaction, error)
}

type service struct {
	repo    Repository
	gateway Gateway
	metrics *metrics.Registry
	newID   func() string
}

func NewService(repo Repository, gateway Gateway, m *metrics.Registry) Service {
	return &service{
		repo:    repo,
		gateway: gateway,
		metrics: m,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *service) InitiatePayment(ctx context.Context, actor auth.Identity, amount float64, phone string) (InitiateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InitiatePayment"),
	)

	if err := actor.RequireUser(); err != nil {
		return InitiateResult{}, err
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return InitiateResult{}, ErrInvalidAmount
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return InitiateResult{}, err
	}

	id := s.newID()
	log = log.With(zap.String("correlation_id", id))

	if _, err := s.repo.Insert(ctx, Transaction{
		ID:          id,
		UserID:      actor.UserID,
		Amount:      amount,
		PhoneNumber: normalized,
		Status:      StatusPending,
	}); err != nil {
		return InitiateResult{}, err
	}

	stk := s.gateway.BuildSTKPush(id, amount, normalized)
	resp, err := s.gateway.Submit(ctx, stk)
	if err != nil {
		s.metrics.Inc("payment_gateway_failed")
		if errors.Is(err, ErrPushNotDelivered) {
			s.cancelUndelivered(ctx, id)
		} else {
			// The provider may have accepted the push; its callback settles it.
			s.metrics.Inc("payment_gateway_undetermined")
			log.Warn("stk push outcome unknown, leaving transaction pending", zap.Error(err))
		}
		return InitiateResult{}, apperror.Wrap(apperror.KindUpstream, ErrGatewayUnavailable.Message, err)
	}

	if resp.CheckoutRequestID != "" {
		if err := s.repo.SetProviderRef(ctx, id, resp.CheckoutRequestID); err != nil {
			// The callback still carries correlation_id, so this is not fatal.
			log.Warn("failed to record provider ref", zap.Error(err))
		}
	}

	s.metrics.Inc("payment_initiated")
	log.Info("payment initiated", zap.String("checkout_request_id", resp.CheckoutRequestID))

	return InitiateResult{
		CorrelationID:   id,
		Payload:         stk.Redacted(),
		ProviderRef:     resp.CheckoutRequestID,
		CustomerMessage: resp.CustomerMessage,
	}, nil
}

// cancelUndelivered settles a transaction whose push never reached the
// customer, so no callback will ever arrive for it.
func (s *service) cancelUndelivered(ctx context.Context, id string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()

	if _, err := s.repo.Settle(cctx, id, StatusCanceled, nil); err != nil {
		logger.FromCtx(ctx).Error("failed to cancel undelivered transaction",
			zap.String("layer", "service"),
			zap.String("correlation_id", id),
			zap.Error(err),
		)
	}
}

func (s *service) SettleCallback(ctx context.Context, correlationID string, resultCode int) (Ack, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SettleCallback"),
		zap.String("correlation_id", correlationID),
		zap.Int("result_code", resultCode),
	)

	if _, err := uuid.Parse(correlationID); err != nil {
		s.metrics.Inc("payment_callback_unrecognized")
		log.Warn("callback with malformed correlation id")
		return ack(OutcomeUnrecognized), nil
	}

	status := StatusCanceled
	if resultCode == 0 {
		status = StatusCompleted
	}
	code := resultCode

	settled, err := s.repo.Settle(ctx, correlationID, status, &code)
	if err != nil {
		log.Error("failed to settle transaction", zap.Error(err))
		return Ack{}, err
	}
	if settled {
		s.metrics.Inc("payment_settled")
		log.Info("transaction settled", zap.String("status", string(status)))
		return ack(OutcomeSettled), nil
	}

	exists, err := s.repo.Exists(ctx, correlationID)
	if err != nil {
		return Ack{}, err
	}
	if !exists {
		s.metrics.Inc("payment_callback_unrecognized")
		log.Warn("callback for unknown transaction")
		return ack(OutcomeUnrecognized), nil
	}

	s.metrics.Inc("payment_callback_duplicate")
	log.Info("duplicate callback ignored")
	return ack(OutcomeDuplicate), nil
}

// HandleCallback records the raw callback body, resolves the correlation id
// (falling back to the CheckoutRequestID) and settles the transaction.
// Unparseable or foreign callbacks are acknowledged as Unrecognized, as are
// callbacks whose CheckoutRequestID differs from the one the provider issued
// for that transaction.
func (s *service) HandleCallback(ctx context.Context, correlationID string, body []byte) (Ack, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandleCallback"),
	)

	var env CallbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Warn("unparseable callback body", zap.Error(err))
	}
	cb := env.Body.STKCallback

	byRef := false
	if correlationID == "" && cb.CheckoutRequestID != "" {
		id, err := s.repo.FindIDByProviderRef(ctx, cb.CheckoutRequestID)
		switch {
		case err == nil:
			correlationID = id
			byRef = true
		case !errors.Is(err, ErrTransactionNotFound):
			return Ack{}, err
		}
	}

	rec := CallbackRecord{Payload: string(body), ResultCode: cb.ResultCode}
	if correlationID != "" {
		rec.TransactionID = &correlationID
	}
	if cb.CheckoutRequestID != "" {
		rec.ProviderRef = &cb.CheckoutRequestID
	}
	if err := s.repo.SaveCallback(ctx, rec); err != nil {
		return Ack{}, err
	}

	if correlationID == "" || cb.ResultCode == nil {
		s.metrics.Inc("payment_callback_unrecognized")
		log.Warn("callback without correlation id or result code",
			zap.String("checkout_request_id", cb.CheckoutRequestID))
		return ack(OutcomeUnrecognized), nil
	}

	if !byRef {
		matches, err := s.providerRefMatches(ctx, correlationID, cb.CheckoutRequestID)
		if err != nil {
			return Ack{}, err
		}
		if !matches {
			s.metrics.Inc("payment_callback_unrecognized")
			log.Warn("callback checkout request id does not match transaction",
				zap.String("correlation_id", correlationID),
				zap.String("checkout_request_id", cb.CheckoutRequestID))
			return ack(OutcomeUnrecognized), nil
		}
	}

	return s.SettleCallback(ctx, correlationID, *cb.ResultCode)
}

// providerRefMatches checks a callback addressed by correlation id against the
// CheckoutRequestID stored at initiation. Transactions without a stored ref
// (submit outcome unknown) accept any callback; unknown or malformed ids are
// left for SettleCallback to report.
func (s *service) providerRefMatches(ctx context.Context, correlationID, checkoutRequestID string) (bool, error) {
	if _, err := uuid.Parse(correlationID); err != nil {
		return true, nil
	}
	t, err := s.repo.FindByID(ctx, correlationID)
	if errors.Is(err, ErrTransactionNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if t.ProviderRef == nil || *t.ProviderRef == "" {
		return true, nil
	}
	return *t.ProviderRef == checkoutRequestID, nil
}

func (s *service) GetTransaction(ctx context.Context, actor auth.Identity, id string) (Transaction, error) {
	if err := actor.RequireUser(); err != nil {
		return Transaction{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return Transaction{}, ErrTransactionNotFound
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	// Other users' transactions are reported as missing.
	if !actor.CanActFor(t.UserID) {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func ack(outcome Outcome) Ack {
	return Ack{ResultCode: 0, ResultDesc: ackReceived, Outcome: outcome}
}
