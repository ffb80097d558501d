package httpapi

import (
	"net/http"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/cart"
	"bookstore-be/internal/catalog"
	"bookstore-be/internal/lending"
	"bookstore-be/internal/metrics"
	"bookstore-be/internal/order"
	"bookstore-be/internal/payment"
	"bookstore-be/internal/user"
)

// Handler adapts the domain services to HTTP+JSON.
type Handler struct {
	Users    user.Service
	Catalog  catalog.Service
	Cart     cart.Service
	Orders   order.Service
	Lending  lending.Service
	Payments payment.Service
	Metrics  *metrics.Registry

	// SecureCookies marks the access_token cookie Secure.
	SecureCookies bool
}

// ---- users ----

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    res.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Users.GetUser(r.Context(), identity(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Users.DeleteUser(r.Context(), identity(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ---- health ----

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "OK",
		"counters": h.Metrics.Snapshot(),
	})
}
