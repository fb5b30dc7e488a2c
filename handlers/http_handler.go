// Package handlers provides HTTP request handlers for the extraction service
// endpoints: batch rows, per-patient lookup, spreadsheet export, single
// document extraction, and health checks, with dependency injection.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/varlaud/dexa-extract/interfaces"
	"github.com/varlaud/dexa-extract/logging"
	"github.com/varlaud/dexa-extract/xlsxwriter"
)

// HTTPHandlerImpl bundles the injected collaborators of the HTTP surface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.RecordValidator
	parser        interfaces.Parser
	decoder       interfaces.Decoder
	healthChecker interfaces.HealthChecker
	maxUploadSize int64
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.RecordValidator,
	parser interfaces.Parser, decoder interfaces.Decoder,
	healthChecker interfaces.HealthChecker, maxUploadSize int64) *HTTPHandlerImpl {

	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		parser:        parser,
		decoder:       decoder,
		healthChecker: healthChecker,
		maxUploadSize: maxUploadSize,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// ServeRows returns every composite row of the current batch
func (h *HTTPHandlerImpl) ServeRows(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.dataStore.GetRows())
}

// ServeRowsByPatient returns the rows extracted for one patient ID
func (h *HTTPHandlerImpl) ServeRowsByPatient(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	if err := h.validator.ValidatePatientID(patientID); err != nil {
		logging.Warn("Unusual user input", "patient_id", patientID)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, exists := h.dataStore.GetPatientIndex()[patientID]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound,
			fmt.Sprintf("no rows for patient ID %s", patientID))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, rows)
}

// ExportWorkbook streams the current batch as a generated spreadsheet
func (h *HTTPHandlerImpl) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	rows := h.dataStore.GetRows()

	// Build into memory first so a writer failure can still produce a
	// clean error response.
	var buf bytes.Buffer
	if err := xlsxwriter.WriteTo(rows, &buf); err != nil {
		logging.Error("Failed to generate export workbook", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "failed to generate workbook")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="composition.xlsx"`)
	w.Header().Set("Last-Modified", h.dataStore.GetLastProcessed().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, &buf); err != nil {
		logging.Warn("Failed to stream export workbook", "error", err)
	}
}

// ExtractSingle decodes and extracts one uploaded report without touching the
// batch, returning its composite row
func (h *HTTPHandlerImpl) ExtractSingle(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.pdf"
	}
	if err := h.validator.ValidateUploadName(name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxUploadSize+1))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > h.maxUploadSize {
		h.RespondWithError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d bytes", h.maxUploadSize))
		return
	}
	if len(body) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "empty request body")
		return
	}

	// The decoder reads from disk, so stage the upload in a temp file.
	tmp, err := os.CreateTemp("", "dexa-upload-*.pdf")
	if err != nil {
		logging.Error("Failed to create temp file for upload", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil {
			logging.Warn("Failed to remove staged upload", "path", tmp.Name(), "error", err)
		}
	}()

	if _, err := tmp.Write(body); err != nil {
		logging.Error("Failed to write staged upload", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	if err := tmp.Close(); err != nil {
		logging.Warn("Failed to close staged upload", "error", err)
	}

	doc, err := h.decoder.DecodePages(tmp.Name())
	if err != nil {
		logging.Warn("Uploaded document failed to decode", "name", name, "error", err)
		h.RespondWithError(w, http.StatusUnprocessableEntity,
			"document could not be decoded")
		return
	}

	row := h.parser.ParseDocument(filepath.Base(name), doc)
	h.RespondWithJSON(w, http.StatusOK, row)
}

// HealthCheck returns the service health derived from the batch state
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.healthChecker.HealthCheck()

	uptime := time.Since(h.dataStore.GetServerStartTime())

	response := map[string]any{
		"status":         status,
		"next_scan":      h.healthChecker.CalculateNextScan().Format(time.RFC3339),
		"uptime_seconds": uptime.Seconds(),
		"uptime_human":   formatUptimeHuman(uptime),
		"data":           details,
	}

	h.RespondWithJSON(w, httpStatus, response)
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
