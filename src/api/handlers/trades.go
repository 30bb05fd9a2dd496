package handlers

import (
	"context"
	"net/http"

	"tradeledger/src/schemas"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type cashOperation func(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error)

type tradeOperation func(ctx context.Context, accountID, symbol string, quantity decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error)

func (h *Handler) PostDeposit(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.Controller.Accounts.Deposit)
}

func (h *Handler) PostWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.Controller.Accounts.Withdraw)
}

func (h *Handler) PostBuy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.Controller.Accounts.Buy)
}

func (h *Handler) PostSell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.Controller.Accounts.Sell)
}

func (h *Handler) cash(w http.ResponseWriter, r *http.Request, op cashOperation) {
	ctx, cancel := h.context(r)
	defer cancel()

	req := new(schemas.CashRequest)
	if err := h.decode(r, req); err != nil {
		h.HandleErrors(w, err)
		return
	}

	transaction, err := op(ctx, chi.URLParam(r, "id"), *req.Amount, idempotencyKey(r))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respondTransaction(w, r, transaction)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, op tradeOperation) {
	ctx, cancel := h.context(r)
	defer cancel()

	req := new(schemas.TradeRequest)
	if err := h.decode(r, req); err != nil {
		h.HandleErrors(w, err)
		return
	}

	transaction, err := op(ctx, chi.URLParam(r, "id"), req.Symbol, *req.Quantity, idempotencyKey(r))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respondTransaction(w, r, transaction)
}

// respondTransaction answers 201 for a new transaction and 200 for a replay.
func (h *Handler) respondTransaction(w http.ResponseWriter, r *http.Request, transaction *schemas.TransactionResponse) {
	status := http.StatusCreated
	if transaction.Replayed {
		status = http.StatusOK
	}
	h.respond(w, r, transaction, status)
}
