// Package scheduler drives the extraction batches: an initial intake scan at
// startup, periodic rescans on a cron schedule, stale-batch health
// monitoring, and the atomic handoff of each finished batch to the data
// container using dependency injection.
package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/varlaud/dexa-extract/config"
	"github.com/varlaud/dexa-extract/interfaces"
	"github.com/varlaud/dexa-extract/logging"
	"github.com/varlaud/dexa-extract/metrics"
	"github.com/varlaud/dexa-extract/reportparser"
	"github.com/varlaud/dexa-extract/reportparser/entities"
	"github.com/varlaud/dexa-extract/validation"
	"github.com/varlaud/dexa-extract/xlsxwriter"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles batch runs and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	decoder   interfaces.Decoder
	cfg       *config.Config
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser,
	decoder interfaces.Decoder, cfg *config.Config) *Scheduler {

	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		decoder:   decoder,
		cfg:       cfg,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start runs the initial batch and schedules periodic rescans
func (s *Scheduler) Start() error {
	// Initial batch
	if err := s.ProcessBatch(); err != nil {
		logging.Error("Failed to perform initial batch run", "error", err)
		return fmt.Errorf("initial batch run failed: %w", err)
	}

	_, err := s.scheduler.Every(s.cfg.ScanIntervalMins).Minutes().Do(func() {
		if err := s.ProcessBatch(); err != nil {
			logging.Error("Failed to process intake batch", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule intake scans", "error", err)
		return fmt.Errorf("failed to schedule intake scans: %w", err)
	}

	s.scheduler.StartAsync()

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// startHealthMonitoring warns when the batch goes stale
func (s *Scheduler) startHealthMonitoring() {
	interval := time.Duration(s.cfg.ScanIntervalMins) * time.Minute

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			lastProcessed := s.dataStore.GetLastProcessed()
			if time.Since(lastProcessed) > 3*interval {
				logging.Warn("Batch has not been refreshed on schedule",
					"last_processed", lastProcessed.Format(time.RFC3339),
					"scan_interval_minutes", s.cfg.ScanIntervalMins)
			}
		}
	}()
}

// ProcessBatch scans the intake directory, extracts one composite row per
// report, swaps the batch into the container, and rewrites the output
// workbook. A document that fails to decode is logged and skipped; the batch
// itself never aborts.
func (s *Scheduler) ProcessBatch() error {
	// Prevent concurrent runs
	if !s.dataStore.BeginProcessing() {
		logging.Info("Batch run already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndProcessing()

	logging.Info("Starting intake batch run", "intake_dir", s.cfg.IntakeDir)
	start := time.Now()

	paths, err := s.intakeDocuments()
	if err != nil {
		return err
	}

	rows := make([]entities.CompositeRow, 0, len(paths))
	sources := make([]string, 0, len(paths))
	failed := 0

	// Documents are processed one at a time: extraction holds no shared
	// state, so ordering is the only thing sequencing buys, and intake
	// batches are small.
	for _, path := range paths {
		name := filepath.Base(path)

		doc, err := s.decoder.DecodePages(path)
		if err != nil {
			logging.Warn("Skipping undecodable document", "source", name, "error", err)
			metrics.DocumentFailuresTotal.WithLabelValues("decode").Inc()
			failed++
			continue
		}

		row := s.parser.ParseDocument(name, doc)
		metrics.DocumentsProcessedTotal.Inc()

		for _, region := range reportparser.Regions {
			if !row.HasRegion(region) {
				metrics.RegionsMissingTotal.WithLabelValues(region).Inc()
			}
		}

		rows = append(rows, row)
		sources = append(sources, name)
	}

	s.reportQuality(rows)

	// Build the patient lookup index; rows without a matched ID stay
	// reachable through GetRows only.
	patientIndex := make(map[string][]entities.CompositeRow)
	for _, row := range rows {
		if row.Patient.PatientID != entities.ValueMissing {
			patientIndex[row.Patient.PatientID] = append(patientIndex[row.Patient.PatientID], row)
		}
	}

	// Atomic swap (zero downtime replacement)
	s.dataStore.UpdateBatch(rows, patientIndex, sources)
	metrics.BatchRows.Set(float64(len(rows)))

	if err := s.writeWorkbook(rows); err != nil {
		// The JSON surface still serves the new batch; only the file
		// artifact is stale.
		logging.Error("Failed to write output workbook", "error", err)
	}

	elapsed := time.Since(start)
	metrics.BatchDuration.Observe(elapsed.Seconds())
	logging.Info("Intake batch run completed",
		"duration", elapsed.String(),
		"documents", len(paths),
		"rows", len(rows),
		"failed", failed)

	return nil
}

// intakeDocuments lists the PDF files in the intake directory in name order.
func (s *Scheduler) intakeDocuments() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.IntakeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read intake directory %s: %w", s.cfg.IntakeDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".pdf" {
			continue
		}
		paths = append(paths, filepath.Join(s.cfg.IntakeDir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// reportQuality logs the batch quality report
func (s *Scheduler) reportQuality(rows []entities.CompositeRow) {
	validator := validation.NewRecordValidator()
	report := validator.ReportBatchQuality(rows)
	validator.CountRegionGaps(report, rows, reportparser.Regions)

	if len(report.DuplicatePatientIDs) > 0 {
		logging.Warn("Duplicate patient IDs detected",
			"total", len(report.DuplicatePatientIDs),
			"patient_ids", report.DuplicatePatientIDs,
		)
	}

	if report.RowsWithoutPatientID > 0 {
		logging.Warn("Documents without a matched patient ID",
			"total", report.RowsWithoutPatientID,
		)
	}

	if report.RowsWithoutRegions > 0 {
		logging.Warn("Documents without any region rows",
			"total", report.RowsWithoutRegions,
		)
	}

	for i := range rows {
		for _, warning := range validator.PlausibilityWarnings(&rows[i]) {
			logging.Warn("Implausible extracted value", "source", rows[i].Source, "detail", warning)
		}
	}
}

// writeWorkbook rewrites the batch spreadsheet artifact
func (s *Scheduler) writeWorkbook(rows []entities.CompositeRow) error {
	outDir := filepath.Dir(s.cfg.OutputFile)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	return xlsxwriter.Write(rows, s.cfg.OutputFile)
}
