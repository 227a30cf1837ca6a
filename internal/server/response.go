package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/report"
)

type APIResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[T]{
		Message: "ok",
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[string]{
		Message: message,
		Data:    "",
	})
}

// writeCSV uses the same columns as the exported report files.
func writeCSV(w http.ResponseWriter, filename string, records []report.Record) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)

	if err := report.WriteCSV(w, records); err != nil {
		slog.Error("write csv response", "error", err)
	}
}
