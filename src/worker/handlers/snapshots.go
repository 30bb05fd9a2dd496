package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/go-chi/chi/v5"
)

// SnapshotRunTimeout bounds manual and scheduled snapshot runs.
const SnapshotRunTimeout = 5 * time.Minute

func (h *Handler) SnapshotAllAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), SnapshotRunTimeout)
	defer cancel()

	result, err := h.Controller.RunSnapshots(ctx)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, result, http.StatusOK)
}

func (h *Handler) SnapshotAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	snapshot, err := h.Controller.SnapshotAccount(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, snapshot, http.StatusCreated)
}

func (h *Handler) ScheduleSnapshots(w http.ResponseWriter, r *http.Request) {
	var req schemas.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, utils.BadRequest("Invalid request body"))
		return
	}
	if err := schemas.ValidateInput(req); err != nil {
		h.HandleErrors(w, err)
		return
	}

	schedule, err := h.Controller.ScheduleSnapshots(r.Context(), req.Cron, SnapshotRunTimeout)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, schedule, http.StatusOK)
}

func (h *Handler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Controller.Schedules(), http.StatusOK)
}
