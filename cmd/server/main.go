package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/cart"
	"bookstore-be/internal/catalog"
	"bookstore-be/internal/config"
	"bookstore-be/internal/db"
	"bookstore-be/internal/httpapi"
	"bookstore-be/internal/lending"
	"bookstore-be/internal/logger"
	"bookstore-be/internal/metrics"
	"bookstore-be/internal/middleware"
	"bookstore-be/internal/order"
	"bookstore-be/internal/payment"
	"bookstore-be/internal/payment/webhook"
	"bookstore-be/internal/user"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = listenAndServe
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	conn := initDBFunc(cfg)
	defer conn.Close()

	handler, err := newServer(ctx, cfg, conn)
	if err != nil {
		return err
	}

	addr := ":" + cfg.AppPort
	logger.L().Info("server starting", zap.String("addr", addr))
	return startServerFunc(ctx, addr, handler)
}

// newServer wires repositories, services and middleware into one handler.
func newServer(ctx context.Context, cfg *config.Config, conn *sql.DB) (http.Handler, error) {
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	sqlxDB := sqlx.NewDb(conn, db.DriverName(cfg))
	reg := metrics.NewRegistry()

	userSvc := user.NewService(user.NewRepository(sqlxDB), hasher, tokens)
	catalogSvc := catalog.NewService(catalog.NewRepository(sqlxDB))

	cartRepo := cart.NewRepository(conn)
	cartSvc := cart.NewService(cartRepo)
	orderSvc := order.NewService(conn, order.NewRepository(conn), cartRepo, reg)
	lendingSvc := lending.NewService(conn, lending.NewRepository(conn), reg)

	gateway := payment.NewMpesaGateway(payment.MpesaConfig{
		BaseURL:         cfg.MpesaBaseURL,
		ConsumerKey:     cfg.MpesaConsumerKey,
		ConsumerSecret:  cfg.MpesaConsumerSecret,
		ShortCode:       cfg.MpesaShortCode,
		PassKey:         cfg.MpesaPassKey,
		CallbackBaseURL: cfg.CallbackBaseURL,
	})
	paymentSvc := payment.NewService(payment.NewRepository(conn), gateway, reg)

	h := &httpapi.Handler{
		Users:         userSvc,
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Orders:        orderSvc,
		Lending:       lendingSvc,
		Payments:      paymentSvc,
		Metrics:       reg,
		SecureCookies: cfg.AppEnv == "production",
	}
	callback := webhook.NewWebhookHandler(paymentSvc)

	limiter := middleware.NewLimiter(cfg.InternalSecretKey)
	go limiter.Run(ctx)

	return middleware.Chain(
		httpapi.NewRouter(h, http.HandlerFunc(callback.CallbackHandler)),
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.Recover,
		middleware.CORS(cfg.CORSOrigin),
		middleware.Auth(tokens),
		limiter.Middleware,
	), nil
}

func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
