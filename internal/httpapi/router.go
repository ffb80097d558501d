package httpapi

import "net/http"

// NewRouter registers every route on a fresh mux. callback serves the payment
// provider's POST /callback.
func NewRouter(h *Handler, callback http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.Handle("POST /callback", callback)

	mux.HandleFunc("POST /user/register", h.register)
	mux.HandleFunc("POST /user/login", h.login)

	mux.HandleFunc("GET /user/books", h.browseStoreBooks)
	mux.HandleFunc("GET /user/books/{id}", h.getStoreBook)
	mux.HandleFunc("GET /user/library_books", h.browseLibraryBooks)

	mux.HandleFunc("GET /user/cart", h.viewCart)
	mux.HandleFunc("POST /user/cart", h.addToCart)
	mux.HandleFunc("POST /user/checkout", h.checkout)
	mux.HandleFunc("GET /user/sales", h.listSales)

	mux.HandleFunc("POST /user/borrow", h.requestBorrow)
	mux.HandleFunc("GET /user/borrowings", h.listBorrowings)
	mux.HandleFunc("POST /user/borrowings/{id}/return", h.returnBook)

	mux.HandleFunc("POST /user/pay", h.pay)
	mux.HandleFunc("GET /user/transactions/{id}", h.getTransaction)

	mux.HandleFunc("GET /admin/users", h.listUsers)
	mux.HandleFunc("GET /admin/users/{id}", h.getUser)
	mux.HandleFunc("DELETE /admin/users/{id}", h.deleteUser)

	mux.HandleFunc("POST /admin/store_books", h.createStoreBook)
	mux.HandleFunc("PUT /admin/store_books/{id}", h.updateStoreBook)
	mux.HandleFunc("DELETE /admin/store_books/{id}", h.deleteStoreBook)
	mux.HandleFunc("GET /admin/view_books", h.listStoreBooks)

	mux.HandleFunc("POST /admin/library_books", h.createLibraryBook)
	mux.HandleFunc("PUT /admin/library_books/{id}", h.updateLibraryBook)
	mux.HandleFunc("DELETE /admin/library_books/{id}", h.deleteLibraryBook)
	mux.HandleFunc("GET /admin/view_library_books", h.listLibraryBooks)

	mux.HandleFunc("GET /admin/sales", h.listAllSales)
	mux.HandleFunc("POST /admin/approve_order/{id}", h.reviewSale)
	mux.HandleFunc("POST /admin/approve_lending/{id}", h.reviewBorrowing)

	return mux
}
