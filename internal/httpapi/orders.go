package httpapi

import (
	"net/http"

	"bookstore-be/internal/order"
)

type addToCartRequest struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

type reviewRequest struct {
	Action string `json:"action"`
}

type checkoutResponse struct {
	TotalPrice float64 `json:"total_price"`
	SaleIDs    []int64 `json:"sale_ids"`
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.ViewCart(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.Cart.AddToCart(r.Context(), identity(r), req.BookID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orders.Checkout(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{TotalPrice: res.TotalPrice, SaleIDs: res.SaleIDs})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Orders.ListSales(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) listAllSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Orders.ListAllSales(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) reviewSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sale, err := h.Orders.ReviewSale(r.Context(), identity(r), id, order.ReviewAction(req.Action))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}
