package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestGateway(rt http.RoundTripper) *mpesaGateway {
	gw := NewMpesaGateway(MpesaConfig{
		BaseURL:         "https://sandbox.example.com/",
		ConsumerKey:     "key",
		ConsumerSecret:  "secret",
		ShortCode:       "174379",
		PassKey:         "passkey",
		CallbackBaseURL: "https://books.example.com/",
	}).(*mpesaGateway)
	gw.httpClient.Transport = rt
	gw.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return gw
}

func TestMpesaGateway_BuildSTKPush(t *testing.T) {
	gw := newTestGateway(nil)
	gw.nairobiLoc = time.FixedZone("EAT", 3*60*60)

	req := gw.BuildSTKPush("abc-123", 99.2, "254712345678")

	assert.Equal(t, "20240501123000", req.Timestamp)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("174379passkey20240501123000")), req.Password)
	assert.Equal(t, int64(100), req.Amount)
	assert.Equal(t, "174379", req.BusinessShortCode)
	assert.Equal(t, "174379", req.PartyB)
	assert.Equal(t, "254712345678", req.PartyA)
	assert.Equal(t, "254712345678", req.PhoneNumber)
	assert.Equal(t, "CustomerPayBillOnline", req.TransactionType)
	assert.Equal(t, "https://books.example.com/callback?correlation_id=abc-123", req.CallBackURL)
	assert.Empty(t, req.Redacted().Password)
}

func TestMpesaGateway_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		tokenCalls := 0
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			if strings.HasPrefix(req.URL.Path, "/oauth") {
				tokenCalls++
				user, pass, ok := req.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "key", user)
				assert.Equal(t, "secret", pass)
				return jsonResponse(200, `{"access_token":"tok","expires_in":"3599"}`)
			}
			assert.Equal(t, "/mpesa/stkpush/v1/processrequest", req.URL.Path)
			assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
			body, _ := io.ReadAll(req.Body)
			assert.Contains(t, string(body), `"BusinessShortCode":"174379"`)
			return jsonResponse(200, `{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResponseCode":"0","CustomerMessage":"Success. Request accepted for processing"}`)
		}))

		stk := gw.BuildSTKPush("abc-123", 50, "254712345678")
		resp, err := gw.Submit(ctx, stk)
		require.NoError(t, err)
		assert.Equal(t, "ws_CO_1", resp.CheckoutRequestID)

		_, err = gw.Submit(ctx, stk)
		require.NoError(t, err)
		assert.Equal(t, 1, tokenCalls, "token is cached between submits")
	})

	t.Run("TokenRejected", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(401, `{"errorMessage":"Invalid credentials"}`)
		}))

		_, err := gw.Submit(ctx, gw.BuildSTKPush("abc", 10, "254712345678"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "token endpoint returned status 401")
		assert.ErrorIs(t, err, ErrPushNotDelivered)
	})

	t.Run("ProviderError", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			if strings.HasPrefix(req.URL.Path, "/oauth") {
				return jsonResponse(200, `{"access_token":"tok","expires_in":"3599"}`)
			}
			return jsonResponse(500, `{"errorMessage":"boom"}`)
		}))

		_, err := gw.Submit(ctx, gw.BuildSTKPush("abc", 10, "254712345678"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
		assert.ErrorIs(t, err, ErrPushNotDelivered)
	})

	t.Run("NotAccepted", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			if strings.HasPrefix(req.URL.Path, "/oauth") {
				return jsonResponse(200, `{"access_token":"tok","expires_in":"3599"}`)
			}
			return jsonResponse(200, `{"ResponseCode":"1","ResponseDescription":"Rejected"}`)
		}))

		_, err := gw.Submit(ctx, gw.BuildSTKPush("abc", 10, "254712345678"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not accepted")
		assert.ErrorIs(t, err, ErrPushNotDelivered)
	})

	t.Run("NetworkError", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: timeout")
		}))

		_, err := gw.Submit(ctx, gw.BuildSTKPush("abc", 10, "254712345678"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("UnreadableAcceptance", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripper(func(req *http.Request) *http.Response {
			if strings.HasPrefix(req.URL.Path, "/oauth") {
				return jsonResponse(200, `{"access_token":"tok","expires_in":"3599"}`)
			}
			return jsonResponse(200, `{"CheckoutRequestID":`)
		}))

		_, err := gw.Submit(ctx, gw.BuildSTKPush("abc", 10, "254712345678"))
		assert.ErrorContains(t, err, "decode stk push response")
		assert.NotErrorIs(t, err, ErrPushNotDelivered, "the provider may already have sent the push")
	})

	t.Run("SubmitTimeoutIsUndetermined", func(t *testing.T) {
		gw := newTestGateway(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			if strings.HasPrefix(req.URL.Path, "/oauth") {
				return jsonResponse(200, `{"access_token":"tok","expires_in":"3599"}`), nil
			}
			return nil, errors.New("Client.Timeout exceeded while awaiting headers")
		}))

		_, err := gw.Submit(ctx, gw.BuildSTKPush("abc", 10, "254712345678"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrPushNotDelivered)
	})
}
