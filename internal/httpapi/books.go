package httpapi

import (
	"net/http"

	"bookstore-be/internal/catalog"
)

func (h *Handler) browseStoreBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.BrowseStoreBooks(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) getStoreBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.Catalog.GetStoreBook(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) browseLibraryBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.BrowseLibraryBooks(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) listStoreBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.ListStoreBooks(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) listLibraryBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.ListLibraryBooks(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) createStoreBook(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateStoreBookInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.Catalog.CreateStoreBook(r.Context(), identity(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) updateStoreBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in catalog.UpdateStoreBookInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.Catalog.UpdateStoreBook(r.Context(), identity(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) deleteStoreBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteStoreBook(r.Context(), identity(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

func (h *Handler) createLibraryBook(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateLibraryBookInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.Catalog.CreateLibraryBook(r.Context(), identity(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) updateLibraryBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in catalog.UpdateLibraryBookInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.Catalog.UpdateLibraryBook(r.Context(), identity(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) deleteLibraryBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteLibraryBook(r.Context(), identity(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "library book deleted"})
}
