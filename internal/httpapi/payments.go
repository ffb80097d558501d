package httpapi

import "net/http"

type payRequest struct {
	Amount      float64 `json:"amount"`
	PhoneNumber string  `json:"phone_number"`
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Payments.InitiatePayment(r.Context(), identity(r), req.Amount, req.PhoneNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.Payments.GetTransaction(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
