// Package health provides health checking for the extraction service.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/varlaud/dexa-extract/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements the interface
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore    interfaces.DataStore
	scanInterval time.Duration
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore, scanInterval time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore:    dataStore,
		scanInterval: scanInterval,
	}
}

// HealthCheck returns the health status derived from the batch state. An
// empty batch from an empty intake directory is healthy, matching the engine
// contract that empty output is valid output; staleness is what degrades.
func (h *HealthCheckerImpl) HealthCheck() (string, map[string]any, int) {
	rows := h.dataStore.GetRows()
	sources := h.dataStore.GetSources()
	lastProcessed := h.dataStore.GetLastProcessed()
	isProcessing := h.dataStore.IsProcessing()

	batchAge := time.Since(lastProcessed)

	var status string
	var httpStatus int

	switch {
	case lastProcessed.IsZero():
		// No scan has completed since startup.
		status = "starting"
		httpStatus = http.StatusServiceUnavailable

	case batchAge > 6*h.scanInterval:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case batchAge > 3*h.scanInterval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isProcessing && batchAge > 2*h.scanInterval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	details := map[string]any{
		"last_processed":  lastProcessed.Format(time.RFC3339),
		"batch_age_hours": math.Round(batchAge.Hours()*10) / 10,
		"documents":       len(sources),
		"rows":            len(rows),
		"is_processing":   isProcessing,
	}

	return status, details, httpStatus
}

// CalculateNextScan returns the next scheduled intake scan time, derived from
// the last completed scan and the configured interval.
func (h *HealthCheckerImpl) CalculateNextScan() time.Time {
	lastProcessed := h.dataStore.GetLastProcessed()
	if lastProcessed.IsZero() {
		return time.Now()
	}

	next := lastProcessed.Add(h.scanInterval)
	for next.Before(time.Now()) {
		next = next.Add(h.scanInterval)
	}
	return next
}
