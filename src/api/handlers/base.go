package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tradeledger/src/api/controllers"
	"tradeledger/src/ledger"
	"tradeledger/src/pricing"
	"tradeledger/src/realtime"
	"tradeledger/src/repositories"
	"tradeledger/src/schemas"
	"tradeledger/src/services"
	"tradeledger/src/utils"

	"github.com/go-playground/validator/v10"
)

// IdempotencyKeyHeader names the request header that makes a mutation safe
// to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	Controller *controllers.Controller
	Hub        *realtime.Hub
	Timeout    time.Duration
}

func NewHandler(controller *controllers.Controller, hub *realtime.Hub, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{Controller: controller, Hub: hub, Timeout: timeout}
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.Timeout)
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", utils.ContentTypeJSON)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// decode reads a JSON body into v and validates it.
func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return utils.BadRequest("Invalid request body")
	}
	return schemas.ValidateInput(v)
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
}

func (h *Handler) HandleErrors(w http.ResponseWriter, err error) {
	var httpErr *utils.HTTPError
	if !errors.As(asHTTPError(err), &httpErr) {
		httpErr = &utils.HTTPError{Code: http.StatusInternalServerError, Message: "Unhandled error"}
	}
	h.respond(w, nil, map[string]string{"error": httpErr.Message}, httpErr.Code)
}

// asHTTPError maps ledger and service errors to the status they are served with.
func asHTTPError(err error) error {
	var httpErr *utils.HTTPError
	var validationErrs validator.ValidationErrors

	switch {
	case err == nil:
		return utils.InternalServerError("Unhandled error")
	case errors.Is(err, context.DeadlineExceeded):
		return utils.GatewayTimeout("Request timed out")
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &validationErrs):
		return utils.UnprocessableEntity(err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return utils.PaymentRequired(err.Error())
	case errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, services.ErrIdempotencyConflict),
		errors.Is(err, repositories.ErrStaleAccount),
		errors.Is(err, pricing.ErrSymbolExists):
		return utils.Conflict(err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidSymbol),
		errors.Is(err, services.ErrInvalidOwner),
		errors.Is(err, services.ErrInvalidQuery):
		return utils.BadRequest(err.Error())
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, repositories.ErrNotFound):
		return utils.NotFound(err.Error())
	}
	return utils.InternalServerError(err.Error())
}
