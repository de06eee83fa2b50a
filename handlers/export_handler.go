package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clasharena/esp-manager/services"
)

type ExportHandler struct {
	exports services.ExportService
}

func NewExportHandler(exports services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func (h *ExportHandler) serveArtifact(w http.ResponseWriter, r *http.Request, artifact *services.ExportArtifact) {
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		// Заголовки уже ушли; остаётся только залогировать.
		slog.Error("failed to write export artifact",
			slog.String("file", artifact.FileName), slog.Any("error", err))
	}
}

// CSVHandler обрабатывает GET /lobbies/{lobbyID}/export/csv.
func (h *ExportHandler) CSVHandler(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.exports.ResultsCSV(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serveArtifact(w, r, artifact)
}

// WorkbookHandler обрабатывает GET /lobbies/{lobbyID}/export/xlsx.
func (h *ExportHandler) WorkbookHandler(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.exports.ResultsWorkbook(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serveArtifact(w, r, artifact)
}

// CardHandler обрабатывает GET /lobbies/{lobbyID}/export/card.
func (h *ExportHandler) CardHandler(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.exports.ResultsCard(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serveArtifact(w, r, artifact)
}

// PublishHandler обрабатывает POST /lobbies/{lobbyID}/export/publish.
func (h *ExportHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	published, err := h.exports.Publish(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"exports": published}); err != nil {
		serverErrorResponse(w, r, err)
	}
}
