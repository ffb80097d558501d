package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	handler := CORS("http://localhost:5173")(okHandler())

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/user/cart", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("Normal request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/books", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestAuth(t *testing.T) {
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("Missing Token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := auth.IdentityFrom(r.Context())
			assert.False(t, ok, "anonymous request must not carry an identity")
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		Auth(tokens)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/books", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		Auth(tokens)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid or expired token","kind":"Unauthenticated"}`, w.Body.String())
	})

	t.Run("Valid Token", func(t *testing.T) {
		token, err := tokens.Issue(auth.Identity{UserID: 7, Email: "admin@example.com", IsAdmin: true})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			assert.True(t, ok)
			assert.Equal(t, int64(7), id.UserID)
			assert.True(t, id.IsAdmin)

			uid, ok := logger.UserIDFrom(r.Context())
			assert.True(t, ok)
			assert.Equal(t, int64(7), uid)
			w.WriteHeader(http.StatusOK)
		})

		Auth(tokens)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Cookie Token", func(t *testing.T) {
		token, err := tokens.Issue(auth.Identity{UserID: 3})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/user/cart", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: token})
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			assert.True(t, ok)
			assert.Equal(t, int64(3), id.UserID)
		})

		Auth(tokens)(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Foreign Secret", func(t *testing.T) {
		other, err := auth.NewTokenManager("other-secret", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(auth.Identity{UserID: 1})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/user/cart", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		Auth(tokens)(okHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLimiter(t *testing.T) {
	t.Run("Strict tier on login", func(t *testing.T) {
		l := NewLimiter("")
		handler := l.Middleware(okHandler())

		codes := make([]int, 0, tierStrict.burst+1)
		for i := 0; i < tierStrict.burst+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		for _, c := range codes[:tierStrict.burst] {
			assert.Equal(t, http.StatusOK, c)
		}
		assert.Equal(t, http.StatusTooManyRequests, codes[tierStrict.burst])
	})

	t.Run("Retry-After on rejection", func(t *testing.T) {
		l := NewLimiter("")
		handler := l.Middleware(okHandler())

		var w *httptest.ResponseRecorder
		for i := 0; i < tierStrict.burst+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/user/register", nil)
			w = httptest.NewRecorder()
			handler.ServeHTTP(w, req)
		}

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), `"kind":"RateLimited"`)
	})

	t.Run("Callbacks are never throttled", func(t *testing.T) {
		l := NewLimiter("")
		handler := l.Middleware(okHandler())

		for i := 0; i < 4*tierStrict.burst; i++ {
			req := httptest.NewRequest(http.MethodPost, "/callback?correlation_id=abc", nil)
			req.RemoteAddr = "196.201.214.200:443"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code, "callback %d", i)
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		assert.Empty(t, l.visitors)
	})

	t.Run("Device header does not reset the bucket", func(t *testing.T) {
		l := NewLimiter("")
		handler := l.Middleware(okHandler())

		var last int
		for i := 0; i < tierStrict.burst+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
			req.RemoteAddr = "10.0.0.9:5555"
			req.Header.Set("X-Device-ID", fmt.Sprintf("device-%d", i))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			last = w.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("Tiers are separate buckets", func(t *testing.T) {
		l := NewLimiter("")
		handler := l.Middleware(okHandler())

		for i := 0; i < tierStrict.burst+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodGet, "/user/books", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Resolve tiers", func(t *testing.T) {
		l := NewLimiter("svc-key")

		req := httptest.NewRequest(http.MethodPost, "/user/pay", nil)
		assert.Equal(t, tierStrict, l.resolveRateTier(req))

		req = httptest.NewRequest(http.MethodPost, "/user/pay", nil)
		req.Header.Set("X-Service-Auth", "svc-key")
		assert.Equal(t, tierInternal, l.resolveRateTier(req))

		req = httptest.NewRequest(http.MethodGet, "/user/books", nil)
		req.Header.Set("X-Client-Type", "frontend-heavy")
		assert.Equal(t, tierFrontend, l.resolveRateTier(req))

		req = httptest.NewRequest(http.MethodGet, "/user/books", nil)
		assert.Equal(t, tierGeneral, l.resolveRateTier(req))
	})

	t.Run("Cleanup evicts idle visitors", func(t *testing.T) {
		l := NewLimiter("")
		now := time.Now()
		l.now = func() time.Time { return now }
		l.visitor("ip:1:general", tierGeneral)

		now = now.Add(visitorTTL + time.Second)
		l.cleanup()

		l.mu.Lock()
		defer l.mu.Unlock()
		assert.Empty(t, l.visitors)
	})

	t.Run("Run stops with context", func(t *testing.T) {
		l := NewLimiter("")
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			l.Run(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("limiter did not stop")
		}
	})
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mw("a"), mw("b"), mw("c")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}
