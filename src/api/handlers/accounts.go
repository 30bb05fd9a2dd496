package handlers

import (
	"net/http"

	"tradeledger/src/schemas"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) GetAllAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	accounts, err := h.Controller.Accounts.ListAccounts(ctx)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, accounts, http.StatusOK)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	req := new(schemas.OpenAccountRequest)
	if err := h.decode(r, req); err != nil {
		h.HandleErrors(w, err)
		return
	}
	initialDeposit := decimal.Zero
	if req.InitialDeposit != nil {
		initialDeposit = *req.InitialDeposit
	}

	account, err := h.Controller.Accounts.OpenAccount(ctx, req.Owner, initialDeposit)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, account, http.StatusCreated)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	account, err := h.Controller.Accounts.GetAccount(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, account, http.StatusOK)
}

func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	holdings, err := h.Controller.Reports.GetHoldingsReport(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, holdings, http.StatusOK)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	summary, err := h.Controller.Reports.GetPortfolioSummary(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, summary, http.StatusOK)
}
