package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/go-chi/chi/v5"
)

func performanceQuery(r *http.Request) (schemas.PerformanceQuery, error) {
	start, end, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		return schemas.PerformanceQuery{}, err
	}
	interval := r.URL.Query().Get("interval")
	if interval != "" {
		if _, err := utils.ParseTimeInterval(interval); err != nil {
			return schemas.PerformanceQuery{}, utils.BadRequest(err.Error())
		}
	}
	return schemas.PerformanceQuery{StartDate: start, EndDate: end, Interval: interval}, nil
}

func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	query, err := performanceQuery(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	points, err := h.Controller.Reports.GetPerformance(ctx, chi.URLParam(r, "id"), query)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, points, http.StatusOK)
}

func (h *Handler) GetPerformanceChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	query, err := performanceQuery(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Controller.Reports.RenderPerformanceChart(ctx, chi.URLParam(r, "id"), query, &buf); err != nil {
		h.HandleErrors(w, err)
		return
	}
	w.Header().Set("Content-Type", utils.ContentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	accountID := chi.URLParam(r, "id")
	filename := fmt.Sprintf("statement-%s-%s", accountID, time.Now().UTC().Format(utils.ShortDashDateLayout))

	var buf bytes.Buffer
	var contentType string
	switch format := r.URL.Query().Get("format"); format {
	case "", "xlsx":
		f, err := h.Controller.Reports.GenerateXLSXStatement(ctx, accountID)
		if err != nil {
			h.HandleErrors(w, err)
			return
		}
		defer f.Close()
		if _, err := f.WriteTo(&buf); err != nil {
			h.HandleErrors(w, err)
			return
		}
		contentType, filename = utils.ContentTypeXLSX, filename+".xlsx"
	case "csv":
		if err := h.Controller.Reports.WriteTransactionsCSV(ctx, accountID, &buf); err != nil {
			h.HandleErrors(w, err)
			return
		}
		contentType, filename = utils.ContentTypeCSV, filename+".csv"
	default:
		h.HandleErrors(w, utils.BadRequest(fmt.Sprintf("Unsupported format %q", format)))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
