package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/listing"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
)

type handler struct {
	// runCtx outlives the request that triggers a run.
	runCtx     context.Context
	listingSvc *listing.Service
	runSvc     *run.Service
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": h.runSvc.Running(),
	})
}

func (h *handler) listListings(w http.ResponseWriter, r *http.Request) {
	req := listing.ListListingsRequest{Format: r.URL.Query().Get("format")}

	listings, err := h.listingSvc.List(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if req.Format == "csv" {
		writeCSV(w, "listings.csv", listing.Records(listings))
		return
	}

	if listings == nil {
		listings = []listing.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	rn, err := h.runSvc.Get(r.Context(), run.GetRunRequest{ID: id})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rn)
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	req := run.ListRunsRequest{
		Source: r.URL.Query().Get("source"),
		Status: run.Status(r.URL.Query().Get("status")),
	}

	runs, err := h.runSvc.List(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if runs == nil {
		runs = []run.Run{}
	}

	writeJSON(w, http.StatusOK, runs)
}

func (h *handler) triggerRun(w http.ResponseWriter, _ *http.Request) {
	rn, err := h.runSvc.Launch(h.runCtx)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, rn)
}

// writeAppError maps an *apperror.AppError to its status; anything else is
// a 500.
func writeAppError(w http.ResponseWriter, err error) {
	if ae, ok := apperror.As(err); ok {
		writeError(w, ae.HTTPStatus(), ae.Message())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
