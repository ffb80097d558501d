package httpapi

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/cart"
	"bookstore-be/internal/catalog"
	"bookstore-be/internal/lending"
	"bookstore-be/internal/metrics"
	"bookstore-be/internal/order"
	"bookstore-be/internal/payment"
	"bookstore-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	users    *MockUserService
	catalog  *MockCatalogService
	cart     *MockCartService
	orders   *MockOrderService
	lending  *MockLendingService
	payments *MockPaymentService
	metrics  *metrics.Registry
	router   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		users:    new(MockUserService),
		catalog:  new(MockCatalogService),
		cart:     new(MockCartService),
		orders:   new(MockOrderService),
		lending:  new(MockLendingService),
		payments: new(MockPaymentService),
		metrics:  metrics.NewRegistry(),
	}
	h := &Handler{
		Users:    f.users,
		Catalog:  f.catalog,
		Cart:     f.cart,
		Orders:   f.orders,
		Lending:  f.lending,
		Payments: f.payments,
		Metrics:  f.metrics,
	}
	callback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ResultCode":0,"ResultDesc":"Callback received"}`))
	})
	f.router = NewRouter(h, callback)
	return f
}

var (
	alice = auth.Identity{UserID: 1, Email: "alice@example.com"}
	admin = auth.Identity{UserID: 9, Email: "admin@example.com", IsAdmin: true}
)

func (f *fixture) do(method, path, body string, id *auth.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	cases := map[apperror.Kind]int{
		apperror.KindInvalidArgument:        http.StatusBadRequest,
		apperror.KindInsufficientStock:      http.StatusBadRequest,
		apperror.KindNoCopiesAvailable:      http.StatusBadRequest,
		apperror.KindInvalidStateTransition: http.StatusBadRequest,
		apperror.KindUnauthenticated:        http.StatusUnauthorized,
		apperror.KindPermissionDenied:       http.StatusForbidden,
		apperror.KindNotFound:               http.StatusNotFound,
		apperror.KindConflict:               http.StatusConflict,
		apperror.KindRateLimited:            http.StatusTooManyRequests,
		apperror.KindUpstream:               http.StatusBadGateway,
		apperror.KindInternal:               http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), string(kind))
	}
}

func TestUsers(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		f := newFixture()
		f.users.On("Register", mock.Anything, "Alice", "alice@example.com", "pw").
			Return(user.User{ID: 1, Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}, nil)

		w := f.do(http.MethodPost, "/user/register", `{"name":"Alice","email":"alice@example.com","password":"pw"}`, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"alice@example.com"`)
		assert.NotContains(t, w.Body.String(), "hash")
	})

	t.Run("RegisterDuplicate", func(t *testing.T) {
		f := newFixture()
		f.users.On("Register", mock.Anything, "Alice", "alice@example.com", "pw").
			Return(user.User{}, user.ErrEmailExists)

		w := f.do(http.MethodPost, "/user/register", `{"name":"Alice","email":"alice@example.com","password":"pw"}`, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"Conflict"`)
	})

	t.Run("RegisterBadJSON", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodPost, "/user/register", `{"name":`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LoginSetsCookie", func(t *testing.T) {
		f := newFixture()
		f.users.On("Login", mock.Anything, "alice@example.com", "pw").
			Return(user.LoginResult{AccessToken: "tok", User: user.User{ID: 1}}, nil)

		w := f.do(http.MethodPost, "/user/login", `{"email":"alice@example.com","password":"pw"}`, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"access_token":"tok"`)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.AccessTokenCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		f := newFixture()
		f.users.On("Login", mock.Anything, "alice@example.com", "bad").
			Return(user.LoginResult{}, user.ErrInvalidCredentials)

		w := f.do(http.MethodPost, "/user/login", `{"email":"alice@example.com","password":"bad"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AdminListForbidden", func(t *testing.T) {
		f := newFixture()
		f.users.On("ListUsers", mock.Anything, alice).Return([]user.User(nil), auth.ErrAdminRequired)

		w := f.do(http.MethodGet, "/admin/users", "", &alice)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"admin access required","kind":"PermissionDenied"}`, w.Body.String())
	})

	t.Run("DeleteInvalidID", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodDelete, "/admin/users/abc", "", &admin)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		f := newFixture()
		f.users.On("DeleteUser", mock.Anything, admin, int64(4)).Return(nil)

		w := f.do(http.MethodDelete, "/admin/users/4", "", &admin)
		assert.Equal(t, http.StatusOK, w.Code)
		f.users.AssertExpectations(t)
	})
}

func TestCatalog(t *testing.T) {
	t.Run("CreateStoreBook", func(t *testing.T) {
		f := newFixture()
		price := 12.5
		in := catalog.CreateStoreBookInput{Title: "Dune", Author: "Herbert", Genre: "SciFi", ISBN: "978", Price: &price, Stock: 3}
		f.catalog.On("CreateStoreBook", mock.Anything, admin, in).
			Return(catalog.StoreBook{ID: 5, Title: "Dune", Price: 12.5, Stock: 3}, nil)

		w := f.do(http.MethodPost, "/admin/store_books",
			`{"title":"Dune","author":"Herbert","genre":"SciFi","isbn":"978","price":12.5,"stock":3}`, &admin)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":5`)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("UpdateStoreBook", mock.Anything, admin, int64(77), mock.Anything).
			Return(catalog.StoreBook{}, catalog.ErrStoreBookNotFound)

		w := f.do(http.MethodPut, "/admin/store_books/77", `{"stock":4}`, &admin)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeleteInUse", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("DeleteLibraryBook", mock.Anything, admin, int64(2)).Return(catalog.ErrBookInUse)

		w := f.do(http.MethodDelete, "/admin/library_books/2", "", &admin)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Browse", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("BrowseLibraryBooks", mock.Anything, alice).
			Return([]catalog.LibraryBook{{ID: 1, Title: "Emma", AvailableCopies: 1, TotalCopies: 2}}, nil)

		w := f.do(http.MethodGet, "/user/library_books", "", &alice)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"available_copies":1`)
	})

	t.Run("Anonymous", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("BrowseStoreBooks", mock.Anything, auth.Identity{}).
			Return([]catalog.StoreBook(nil), auth.ErrUnauthenticated)

		w := f.do(http.MethodGet, "/user/books", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCartAndCheckout(t *testing.T) {
	t.Run("AddToCart", func(t *testing.T) {
		f := newFixture()
		f.cart.On("AddToCart", mock.Anything, alice, int64(10), 2).
			Return(cart.CartItem{ID: 1, UserID: 1, BookID: 10, Quantity: 2}, nil)

		w := f.do(http.MethodPost, "/user/cart", `{"book_id":10,"quantity":2}`, &alice)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Checkout", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Checkout", mock.Anything, alice).
			Return(order.CheckoutResult{TotalPrice: 20, SaleIDs: []int64{100}}, nil)

		w := f.do(http.MethodPost, "/user/checkout", "", &alice)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"total_price":20,"sale_ids":[100]}`, w.Body.String())
	})

	t.Run("CheckoutInsufficientStock", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Checkout", mock.Anything, alice).
			Return(order.CheckoutResult{}, &apperror.InsufficientStockError{BookID: 10, Title: "Dune", Requested: 3, Available: 0})

		w := f.do(http.MethodPost, "/user/checkout", "", &alice)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"InsufficientStock"`)
		assert.Contains(t, w.Body.String(), `"book_id":10`)
		assert.Contains(t, w.Body.String(), `"available":0`)
	})

	t.Run("CheckoutInternalHidesDetail", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Checkout", mock.Anything, alice).
			Return(order.CheckoutResult{}, errors.New("pq: connection reset"))

		w := f.do(http.MethodPost, "/user/checkout", "", &alice)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq")
	})

	t.Run("ReviewSale", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ReviewSale", mock.Anything, admin, int64(100), order.ActionReject).
			Return(order.Sale{ID: 100, Status: order.SaleStatusRejected}, nil)

		w := f.do(http.MethodPost, "/admin/approve_order/100", `{"action":"reject"}`, &admin)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLending(t *testing.T) {
	t.Run("NoCopies", func(t *testing.T) {
		f := newFixture()
		f.lending.On("RequestBorrow", mock.Anything, alice, int64(3)).
			Return(lending.Borrowing{}, lending.ErrNoCopiesAvailable)

		w := f.do(http.MethodPost, "/user/borrow", `{"book_id":3}`, &alice)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"NoCopiesAvailable"`)
	})

	t.Run("ReturnNotBorrower", func(t *testing.T) {
		f := newFixture()
		f.lending.On("ReturnBook", mock.Anything, alice, int64(8)).
			Return(lending.Borrowing{}, lending.ErrNotBorrower)

		w := f.do(http.MethodPost, "/user/borrowings/8/return", "", &alice)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Approve", func(t *testing.T) {
		f := newFixture()
		f.lending.On("ReviewBorrowing", mock.Anything, admin, int64(8), lending.ActionApprove).
			Return(lending.Borrowing{ID: 8, Status: lending.StatusApproved}, nil)

		w := f.do(http.MethodPost, "/admin/approve_lending/8", `{"action":"approve"}`, &admin)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPayments(t *testing.T) {
	t.Run("Pay", func(t *testing.T) {
		f := newFixture()
		f.payments.On("InitiatePayment", mock.Anything, alice, 150.0, "0712345678").
			Return(payment.InitiateResult{CorrelationID: "abc"}, nil)

		w := f.do(http.MethodPost, "/user/pay", `{"amount":150,"phone_number":"0712345678"}`, &alice)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"correlation_id":"abc"`)
	})

	t.Run("GatewayDown", func(t *testing.T) {
		f := newFixture()
		f.payments.On("InitiatePayment", mock.Anything, alice, 150.0, "0712345678").
			Return(payment.InitiateResult{}, apperror.Wrap(apperror.KindUpstream, "payment provider request failed", errors.New("timeout")))

		w := f.do(http.MethodPost, "/user/pay", `{"amount":150,"phone_number":"0712345678"}`, &alice)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"payment provider request failed","kind":"UpstreamFailure"}`, w.Body.String())
	})

	t.Run("Callback", func(t *testing.T) {
		f := newFixture()
		w := f.do(http.MethodPost, "/callback?correlation_id=abc", `{}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHealth(t *testing.T) {
	f := newFixture()
	f.metrics.Inc("checkout_succeeded")

	w := f.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
	assert.Contains(t, w.Body.String(), `"checkout_succeeded":1`)
}
