package handlers

import (
	"errors"
	"net/http"

	"tradeledger/src/ledger"
	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	quotes, err := h.Controller.GetPrices(ctx)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, quotes, http.StatusOK)
}

func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	symbol := chi.URLParam(r, "symbol")
	quote, err := h.Controller.GetPrice(ctx, symbol)
	if errors.Is(err, ledger.ErrInvalidSymbol) {
		h.HandleErrors(w, utils.NotFound("Symbol not listed: "+symbol))
		return
	}
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, quote, http.StatusOK)
}

func (h *Handler) PutPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	req := new(schemas.SetPriceRequest)
	if err := h.decode(r, req); err != nil {
		h.HandleErrors(w, err)
		return
	}

	symbol := chi.URLParam(r, "symbol")
	quote, err := h.Controller.SetPrice(ctx, symbol, req)
	if errors.Is(err, ledger.ErrInvalidSymbol) {
		h.HandleErrors(w, utils.NotFound("Symbol not listed: "+symbol))
		return
	}
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, quote, http.StatusOK)
}

func (h *Handler) PostSymbol(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	req := new(schemas.AddSymbolRequest)
	if err := h.decode(r, req); err != nil {
		h.HandleErrors(w, err)
		return
	}

	quote, err := h.Controller.AddSymbol(ctx, req)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, quote, http.StatusCreated)
}
