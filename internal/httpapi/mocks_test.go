package httpapi

import (
	"context"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/cart"
	"bookstore-be/internal/catalog"
	"bookstore-be/internal/lending"
	"bookstore-be/internal/order"
	"bookstore-be/internal/payment"
	"bookstore-be/internal/user"

	"github.com/stretchr/testify/mock"
)

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (user.User, error) {
	args := m.Called(ctx, name, email, password)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (user.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(user.LoginResult), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, actor auth.Identity) ([]user.User, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, actor auth.Identity, id int64) (user.User, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actor auth.Identity, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type MockCatalogService struct{ mock.Mock }

func (m *MockCatalogService) CreateStoreBook(ctx context.Context, actor auth.Identity, in catalog.CreateStoreBookInput) (catalog.StoreBook, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(catalog.StoreBook), args.Error(1)
}

func (m *MockCatalogService) UpdateStoreBook(ctx context.Context, actor auth.Identity, id int64, in catalog.UpdateStoreBookInput) (catalog.StoreBook, error) {
	args := m.Called(ctx, actor, id, in)
	return args.Get(0).(catalog.StoreBook), args.Error(1)
}

func (m *MockCatalogService) DeleteStoreBook(ctx context.Context, actor auth.Identity, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockCatalogService) ListStoreBooks(ctx context.Context, actor auth.Identity) ([]catalog.StoreBook, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]catalog.StoreBook), args.Error(1)
}

func (m *MockCatalogService) BrowseStoreBooks(ctx context.Context, actor auth.Identity) ([]catalog.StoreBook, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]catalog.StoreBook), args.Error(1)
}

func (m *MockCatalogService) GetStoreBook(ctx context.Context, actor auth.Identity, id int64) (catalog.StoreBook, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(catalog.StoreBook), args.Error(1)
}

func (m *MockCatalogService) CreateLibraryBook(ctx context.Context, actor auth.Identity, in catalog.CreateLibraryBookInput) (catalog.LibraryBook, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(catalog.LibraryBook), args.Error(1)
}

func (m *MockCatalogService) UpdateLibraryBook(ctx context.Context, actor auth.Identity, id int64, in catalog.UpdateLibraryBookInput) (catalog.LibraryBook, error) {
	args := m.Called(ctx, actor, id, in)
	return args.Get(0).(catalog.LibraryBook), args.Error(1)
}

func (m *MockCatalogService) DeleteLibraryBook(ctx context.Context, actor auth.Identity, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockCatalogService) ListLibraryBooks(ctx context.Context, actor auth.Identity) ([]catalog.LibraryBook, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]catalog.LibraryBook), args.Error(1)
}

func (m *MockCatalogService) BrowseLibraryBooks(ctx context.Context, actor auth.Identity) ([]catalog.LibraryBook, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]catalog.LibraryBook), args.Error(1)
}

type MockCartService struct{ mock.Mock }

func (m *MockCartService) AddToCart(ctx context.Context, actor auth.Identity, bookID int64, quantity int) (cart.CartItem, error) {
	args := m.Called(ctx, actor, bookID, quantity)
	return args.Get(0).(cart.CartItem), args.Error(1)
}

func (m *MockCartService) ViewCart(ctx context.Context, actor auth.Identity) (cart.Cart, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(cart.Cart), args.Error(1)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) Checkout(ctx context.Context, actor auth.Identity) (order.CheckoutResult, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(order.CheckoutResult), args.Error(1)
}

func (m *MockOrderService) ReviewSale(ctx context.Context, actor auth.Identity, saleID int64, action order.ReviewAction) (order.Sale, error) {
	args := m.Called(ctx, actor, saleID, action)
	return args.Get(0).(order.Sale), args.Error(1)
}

func (m *MockOrderService) ListSales(ctx context.Context, actor auth.Identity) ([]order.Sale, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]order.Sale), args.Error(1)
}

func (m *MockOrderService) ListAllSales(ctx context.Context, actor auth.Identity) ([]order.Sale, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]order.Sale), args.Error(1)
}

type MockLendingService struct{ mock.Mock }

func (m *MockLendingService) RequestBorrow(ctx context.Context, actor auth.Identity, bookID int64) (lending.Borrowing, error) {
	args := m.Called(ctx, actor, bookID)
	return args.Get(0).(lending.Borrowing), args.Error(1)
}

func (m *MockLendingService) ReviewBorrowing(ctx context.Context, actor auth.Identity, borrowingID int64, action lending.ReviewAction) (lending.Borrowing, error) {
	args := m.Called(ctx, actor, borrowingID, action)
	return args.Get(0).(lending.Borrowing), args.Error(1)
}

func (m *MockLendingService) ReturnBook(ctx context.Context, actor auth.Identity, borrowingID int64) (lending.Borrowing, error) {
	args := m.Called(ctx, actor, borrowingID)
	return args.Get(0).(lending.Borrowing), args.Error(1)
}

func (m *MockLendingService) ListBorrowings(ctx context.Context, actor auth.Identity) ([]lending.Borrowing, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]lending.Borrowing), args.Error(1)
}

type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) InitiatePayment(ctx context.Context, actor auth.Identity, amount float64, phone string) (payment.InitiateResult, error) {
	args := m.Called(ctx, actor, amount, phone)
	return args.Get(0).(payment.InitiateResult), args.Error(1)
}

func (m *MockPaymentService) SettleCallback(ctx context.Context, correlationID string, resultCode int) (payment.Ack, error) {
	args := m.Called(ctx, correlationID, resultCode)
	return args.Get(0).(payment.Ack), args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, correlationID string, body []byte) (payment.Ack, error) {
	args := m.Called(ctx, correlationID, body)
	return args.Get(0).(payment.Ack), args.Error(1)
}

func (m *MockPaymentService) GetTransaction(ctx context.Context, actor auth.Identity, id string) (payment.Transaction, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(payment.Transaction), args.Error(1)
}
