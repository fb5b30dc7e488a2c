// Package data provides thread-safe storage for the current extraction batch.
// The BatchContainer holds the composite rows of the latest intake scan with
// atomic operations for zero-downtime replacement.
package data

import (
	"sync/atomic"
	"time"

	"github.com/varlaud/dexa-extract/interfaces"
	"github.com/varlaud/dexa-extract/logging"
	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// Compile-time check to ensure BatchContainer implements DataStore
var _ interfaces.DataStore = (*BatchContainer)(nil)

// BatchContainer holds the current batch with atomic pointers so readers
// never see a half-replaced batch.
type BatchContainer struct {
	rows            atomic.Value // []entities.CompositeRow
	patientIndex    atomic.Value // map[string][]entities.CompositeRow
	sources         atomic.Value // []string
	lastProcessed   atomic.Value // time.Time
	processing      atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewBatchContainer creates a new BatchContainer with empty data
func NewBatchContainer() *BatchContainer {
	bc := &BatchContainer{}
	bc.rows.Store(make([]entities.CompositeRow, 0))
	bc.patientIndex.Store(make(map[string][]entities.CompositeRow))
	bc.sources.Store(make([]string, 0))
	bc.lastProcessed.Store(time.Time{})
	bc.serverStartTime.Store(time.Time{})
	return bc
}

// Thread-safe getters with type check

// GetRows returns the composite rows of the current batch
func (bc *BatchContainer) GetRows() []entities.CompositeRow {
	if v := bc.rows.Load(); v != nil {
		if rows, ok := v.([]entities.CompositeRow); ok {
			return rows
		}
	}

	logging.Warn("Batch rows are empty or invalid")
	return []entities.CompositeRow{}
}

// GetPatientIndex returns the patient ID lookup map for O(1) access
func (bc *BatchContainer) GetPatientIndex() map[string][]entities.CompositeRow {
	if v := bc.patientIndex.Load(); v != nil {
		if index, ok := v.(map[string][]entities.CompositeRow); ok {
			return index
		}
	}

	logging.Warn("Patient index is empty or invalid")
	return make(map[string][]entities.CompositeRow)
}

// GetSources returns the source file names of the current batch
func (bc *BatchContainer) GetSources() []string {
	if v := bc.sources.Load(); v != nil {
		if sources, ok := v.([]string); ok {
			return sources
		}
	}

	logging.Warn("Source list is empty or invalid")
	return []string{}
}

// GetLastProcessed returns the timestamp of the last completed batch
func (bc *BatchContainer) GetLastProcessed() time.Time {
	if v := bc.lastProcessed.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the last processed value")
	return time.Time{}
}

// IsProcessing returns true if a batch run is currently in progress
func (bc *BatchContainer) IsProcessing() bool {
	return bc.processing.Load()
}

// SetServerStartTime sets the server start time
func (bc *BatchContainer) SetServerStartTime(startTime time.Time) {
	bc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (bc *BatchContainer) GetServerStartTime() time.Time {
	if v := bc.serverStartTime.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateBatch atomically replaces the whole batch
func (bc *BatchContainer) UpdateBatch(rows []entities.CompositeRow,
	patientIndex map[string][]entities.CompositeRow, sources []string) {

	// Atomic swap (zero downtime replacement)
	bc.rows.Store(rows)
	bc.patientIndex.Store(patientIndex)
	bc.sources.Store(sources)
	bc.lastProcessed.Store(time.Now())
}

// BeginProcessing marks the start of a batch run.
// Returns true if the run can proceed, false if another run is in progress.
func (bc *BatchContainer) BeginProcessing() bool {
	return bc.processing.CompareAndSwap(false, true)
}

// EndProcessing marks the end of a batch run
func (bc *BatchContainer) EndProcessing() {
	bc.processing.Store(false)
}
