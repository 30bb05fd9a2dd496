package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/go-chi/chi/v5"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 1000
)

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	query, err := parseTransactionQuery(r.URL.Query())
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	page, err := h.Controller.Accounts.ListTransactions(ctx, chi.URLParam(r, "id"), query)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, page, http.StatusOK)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	transaction, err := h.Controller.Accounts.GetTransaction(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "txID"))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, transaction, http.StatusOK)
}

func (h *Handler) GetTradeHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	trades, err := h.Controller.Accounts.TradeHistory(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "symbol"))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, trades, http.StatusOK)
}

func parseTransactionQuery(values url.Values) (schemas.TransactionQuery, error) {
	query := schemas.TransactionQuery{
		Type:   values.Get("type"),
		Symbol: values.Get("symbol"),
		Limit:  defaultTransactionLimit,
	}

	if v := values.Get("startDate"); v != "" {
		start, err := utils.ParseDate(v)
		if err != nil {
			return query, utils.BadRequest(err.Error())
		}
		query.StartDate = &start
	}
	if v := values.Get("endDate"); v != "" {
		end, err := utils.ParseDate(v)
		if err != nil {
			return query, utils.BadRequest(err.Error())
		}
		// a plain date includes the whole day
		if !strings.Contains(v, "T") {
			end = utils.EndOfDay(end)
		}
		query.EndDate = &end
	}
	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return query, utils.BadRequest("endDate must be after startDate")
	}

	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxTransactionLimit {
			return query, utils.BadRequest("limit must be between 1 and " + strconv.Itoa(maxTransactionLimit))
		}
		query.Limit = limit
	}
	if v := values.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return query, utils.BadRequest("offset must be a non-negative integer")
		}
		query.Offset = offset
	}

	switch strings.ToLower(values.Get("order")) {
	case "", "asc":
	case "desc":
		query.Descending = true
	default:
		return query, utils.BadRequest("order must be asc or desc")
	}
	return query, nil
}

// parsePeriod reads startDate and endDate, defaulting to the last 30 days.
func parsePeriod(values url.Values, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC()
	if v := values.Get("endDate"); v != "" {
		parsed, err := utils.ParseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, utils.BadRequest(err.Error())
		}
		end = utils.EndOfDay(parsed)
	}
	start := end.AddDate(0, 0, -30)
	if v := values.Get("startDate"); v != "" {
		parsed, err := utils.ParseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, utils.BadRequest(err.Error())
		}
		start = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, utils.BadRequest("endDate must be after startDate")
	}
	return start, end, nil
}
