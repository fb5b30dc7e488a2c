// Package interfaces defines core abstractions for the extraction service
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"time"

	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// BatchQualityReport summarises data quality issues found in one batch.
type BatchQualityReport struct {
	DuplicatePatientIDs  []string
	RowsWithoutPatientID int            // reports where no header label matched
	RowsWithoutRegions   int            // reports where no region row was found
	RegionGaps           map[string]int // region name -> rows missing that region
}

// DataStore defines the contract for batch storage. It provides thread-safe
// access to the current batch of composite rows with atomic operations for
// zero-downtime replacement.
type DataStore interface {
	// Data retrieval methods
	GetRows() []entities.CompositeRow
	GetPatientIndex() map[string][]entities.CompositeRow
	GetSources() []string
	GetLastProcessed() time.Time
	IsProcessing() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateBatch(rows []entities.CompositeRow,
		patientIndex map[string][]entities.CompositeRow, sources []string)
	BeginProcessing() bool
	EndProcessing()
}

// Parser defines the contract for the extraction engine. It turns decoded
// page text into one composite row per document. Parsing never fails: absent
// fields and regions degrade to markers and omissions, not errors.
type Parser interface {
	ParseDocument(source string, doc entities.DocumentText) entities.CompositeRow
}

// Decoder defines the contract for the document text-layer decoder. It yields
// one plain-text string per page of one document. Decoder failures are the
// only fatal error class in the system and fail that document alone.
type Decoder interface {
	DecodePages(path string) (entities.DocumentText, error)
}

// Scheduler defines the contract for batch scheduling and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextScan returns the next scheduled intake scan time
	CalculateNextScan() time.Time
}

// RecordValidator defines the contract for record validation operations.
type RecordValidator interface {
	// ValidateRow checks structural invariants of a composite row
	ValidateRow(row *entities.CompositeRow) error

	// ReportBatchQuality generates a quality report over a full batch
	ReportBatchQuality(rows []entities.CompositeRow) *BatchQualityReport

	// ValidatePatientID validates user-supplied patient ID input
	ValidatePatientID(input string) error

	// ValidateUploadName validates an uploaded document file name
	ValidateUploadName(name string) error
}
