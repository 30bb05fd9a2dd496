package handlers

import (
	"net/http"

	"tradeledger/src/schemas"
)

func (h *Handler) PostToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	creds := new(schemas.TokenRequest)
	if err := h.decode(r, creds); err != nil {
		h.HandleErrors(w, err)
		return
	}

	tokenResponse, err := h.Controller.PostToken(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, tokenResponse, http.StatusOK)
}
