package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"bookstore-be/internal/logger"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	timestampLayout = "20060102150405"
	transactionType = "CustomerPayBillOnline"

	// Tokens are valid for an hour; refresh a little early.
	tokenSafetyMargin = time.Minute
)

// ErrPushNotDelivered marks a Submit failure after which the provider will
// never call back: the push was not sent, or the provider refused it. Any
// other Submit error leaves the outcome unknown.
var ErrPushNotDelivered = errors.New("stk push not delivered")

// Gateway builds and submits STK push requests.
type Gateway interface {
	BuildSTKPush(correlationID string, amount float64, phone string) STKPushRequest
	Submit(ctx context.Context, req STKPushRequest) (STKPushResponse, error)
}

type MpesaConfig struct {
	BaseURL         string
	ConsumerKey     string
	ConsumerSecret  string
	ShortCode       string
	PassKey         string
	CallbackBaseURL string
}

type mpesaGateway struct {
	cfg        MpesaConfig
	httpClient *http.Client
	nairobiLoc *time.Location
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewMpesaGateway(cfg MpesaConfig) Gateway {
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		logger.L().Warn("M-Pesa consumer credentials are empty")
	}

	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		logger.L().Error("failed to load Nairobi location, defaulting to EAT", zap.Error(err))
		loc = time.FixedZone("EAT", 3*60*60)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.CallbackBaseURL = strings.TrimRight(cfg.CallbackBaseURL, "/")

	return &mpesaGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		nairobiLoc: loc,
		now:        time.Now,
	}
}

func (g *mpesaGateway) BuildSTKPush(correlationID string, amount float64, phone string) STKPushRequest {
	ts := g.now().In(g.nairobiLoc).Format(timestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(g.cfg.ShortCode + g.cfg.PassKey + ts))

	return STKPushRequest{
		BusinessShortCode: g.cfg.ShortCode,
		Password:          password,
		Timestamp:         ts,
		TransactionType:   transactionType,
		Amount:            int64(math.Ceil(amount)),
		PartyA:            phone,
		PartyB:            g.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       g.cfg.CallbackBaseURL + "/callback?correlation_id=" + correlationID,
		AccountReference:  correlationID,
		TransactionDesc:   "Bookstore payment",
	}
}

func (g *mpesaGateway) Submit(ctx context.Context, stk STKPushRequest) (STKPushResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "Submit"),
		zap.String("correlation_id", stk.AccountReference),
		zap.Int64("amount", stk.Amount),
	)

	token, err := g.token(ctx)
	if err != nil {
		log.Error("failed to obtain access token", zap.Error(err))
		return STKPushResponse{}, fmt.Errorf("%w: %w", ErrPushNotDelivered, err)
	}

	body, err := json.Marshal(stk)
	if err != nil {
		return STKPushResponse{}, fmt.Errorf("%w: marshal stk push: %w", ErrPushNotDelivered, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return STKPushResponse{}, fmt.Errorf("%w: build stk push request: %w", ErrPushNotDelivered, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	log.Info("sending stk push")

	respBody, status, err := g.do(req)
	if err != nil {
		log.Error("stk push request failed", zap.Error(err))
		return STKPushResponse{}, err
	}
	if status < 200 || status > 299 {
		log.Error("stk push rejected", zap.Int("status", status), zap.ByteString("body", respBody))
		return STKPushResponse{}, fmt.Errorf("%w: stk push returned status %d", ErrPushNotDelivered, status)
	}

	var out STKPushResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return STKPushResponse{}, fmt.Errorf("decode stk push response: %w", err)
	}
	if out.ResponseCode != "" && out.ResponseCode != "0" {
		log.Warn("stk push not accepted", zap.String("response_code", out.ResponseCode))
		return out, fmt.Errorf("%w: stk push not accepted: %s %s", ErrPushNotDelivered, out.ResponseCode, out.ResponseDescription)
	}

	log.Info("stk push accepted", zap.String("checkout_request_id", out.CheckoutRequestID))
	return out, nil
}

func (g *mpesaGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && g.now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(g.cfg.ConsumerKey, g.cfg.ConsumerSecret)

	body, status, err := g.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", status)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	ttl := time.Hour
	if d, err := time.ParseDuration(out.ExpiresIn + "s"); err == nil && d > tokenSafetyMargin {
		ttl = d
	}
	g.accessToken = out.AccessToken
	g.tokenExpiry = g.now().Add(ttl - tokenSafetyMargin)
	return g.accessToken, nil
}

func (g *mpesaGateway) do(req *http.Request) ([]byte, int, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("m-pesa request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read m-pesa response: %w", err)
	}
	return body, resp.StatusCode, nil
}
