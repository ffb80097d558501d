package httpapi

import (
	"net/http"

	"bookstore-be/internal/lending"
)

type borrowRequest struct {
	BookID int64 `json:"book_id"`
}

func (h *Handler) requestBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Lending.RequestBorrow(r.Context(), identity(r), req.BookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) listBorrowings(w http.ResponseWriter, r *http.Request) {
	list, err := h.Lending.ListBorrowings(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) returnBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Lending.ReturnBook(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) reviewBorrowing(w http.ResponseWriter, r *http.Request) {
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
	b, err := h.Lending.ReviewBorrowing(r.Context(), identity(r), id, lending.ReviewAction(req.Action))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
