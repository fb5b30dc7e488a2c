package scheduler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/varlaud/dexa-extract/config"
	"github.com/varlaud/dexa-extract/data"
	"github.com/varlaud/dexa-extract/reportparser"
	"github.com/varlaud/dexa-extract/reportparser/entities"
	"github.com/varlaud/dexa-extract/xlsxwriter"
)

// fakeDecoder serves canned page text keyed by file base name so batch tests
// run without real PDFs.
type fakeDecoder struct {
	docs map[string]entities.DocumentText
}

func (d *fakeDecoder) DecodePages(path string) (entities.DocumentText, error) {
	doc, ok := d.docs[filepath.Base(path)]
	if !ok {
		return nil, errors.New("unreadable content stream")
	}
	return doc, nil
}

func reportPages(patientID string) entities.DocumentText {
	return entities.DocumentText{
		"Patient ID: " + patientID + " Sex: F Age: 46 ",
		"Total Body Tissue Quantitation Composition (Enhanced Analysis)\n" +
			"Trunk 30.9 58 31.002 9.580 20.530 0.892\n" +
			"Total 31.5 57 70.310 22.140 46.010 2.160",
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		IntakeDir:        filepath.Join(dir, "intake"),
		OutputFile:       filepath.Join(dir, "out", "composition.xlsx"),
		ScanIntervalMins: 15,
	}
}

func stageIntake(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create intake dir: %v", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0644); err != nil {
			t.Fatalf("failed to stage %s: %v", name, err)
		}
	}
}

func TestProcessBatch(t *testing.T) {
	cfg := testConfig(t)
	stageIntake(t, cfg.IntakeDir, "b-visit.pdf", "a-visit.pdf", "notes.txt")

	decoder := &fakeDecoder{docs: map[string]entities.DocumentText{
		"a-visit.pdf": reportPages("AB-10234"),
		"b-visit.pdf": reportPages("CD-55871"),
	}}
	store := data.NewBatchContainer()
	s := NewScheduler(store, reportparser.NewReportParser(), decoder, cfg)

	if err := s.ProcessBatch(); err != nil {
		t.Fatalf("expected batch to succeed, got %v", err)
	}

	rows := store.GetRows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (txt files ignored), got %d", len(rows))
	}

	// Documents are processed in name order.
	if rows[0].Source != "a-visit.pdf" || rows[1].Source != "b-visit.pdf" {
		t.Errorf("expected name-ordered sources, got %s then %s", rows[0].Source, rows[1].Source)
	}
	if rows[0].Patient.PatientID != "AB-10234" {
		t.Errorf("expected extracted patient ID, got %q", rows[0].Patient.PatientID)
	}
	if len(rows[0].Regions) != 2 {
		t.Errorf("expected Trunk and Total regions, got %v", rows[0].Regions)
	}

	index := store.GetPatientIndex()
	if len(index["CD-55871"]) != 1 {
		t.Errorf("expected CD-55871 indexed, got %v", index)
	}
	if store.GetLastProcessed().IsZero() {
		t.Error("expected last-processed timestamp set")
	}
}

// TestProcessBatchSkipsUndecodable checks that a decode failure drops that
// document alone, not the batch.
func TestProcessBatchSkipsUndecodable(t *testing.T) {
	cfg := testConfig(t)
	stageIntake(t, cfg.IntakeDir, "good.pdf", "corrupt.pdf")

	decoder := &fakeDecoder{docs: map[string]entities.DocumentText{
		"good.pdf": reportPages("AB-10234"),
	}}
	store := data.NewBatchContainer()
	s := NewScheduler(store, reportparser.NewReportParser(), decoder, cfg)

	if err := s.ProcessBatch(); err != nil {
		t.Fatalf("expected batch to survive a decode failure, got %v", err)
	}

	rows := store.GetRows()
	if len(rows) != 1 || rows[0].Source != "good.pdf" {
		t.Errorf("expected only the decodable document, got %v", rows)
	}
}

func TestProcessBatchEmptyIntake(t *testing.T) {
	cfg := testConfig(t)
	stageIntake(t, cfg.IntakeDir)

	store := data.NewBatchContainer()
	s := NewScheduler(store, reportparser.NewReportParser(), &fakeDecoder{}, cfg)

	if err := s.ProcessBatch(); err != nil {
		t.Fatalf("expected empty intake to be a valid batch, got %v", err)
	}

	if len(store.GetRows()) != 0 {
		t.Errorf("expected empty batch, got %v", store.GetRows())
	}
	if store.GetLastProcessed().IsZero() {
		t.Error("expected empty batch to still stamp last-processed")
	}
}

func TestProcessBatchMissingIntakeDir(t *testing.T) {
	cfg := testConfig(t)

	store := data.NewBatchContainer()
	s := NewScheduler(store, reportparser.NewReportParser(), &fakeDecoder{}, cfg)

	if err := s.ProcessBatch(); err == nil {
		t.Error("expected missing intake directory to fail the run")
	}
	if store.IsProcessing() {
		t.Error("expected processing flag released after failure")
	}
}

func TestProcessBatchSkipsWhenAlreadyRunning(t *testing.T) {
	cfg := testConfig(t)
	stageIntake(t, cfg.IntakeDir, "a.pdf")

	store := data.NewBatchContainer()
	s := NewScheduler(store, reportparser.NewReportParser(), &fakeDecoder{}, cfg)

	if !store.BeginProcessing() {
		t.Fatal("expected to take the processing flag")
	}
	defer store.EndProcessing()

	if err := s.ProcessBatch(); err != nil {
		t.Errorf("expected concurrent run to skip quietly, got %v", err)
	}
	if !store.GetLastProcessed().IsZero() {
		t.Error("expected skipped run not to touch the batch")
	}
}

// TestProcessBatchWritesWorkbook checks the spreadsheet artifact rewritten at
// the end of every run.
func TestProcessBatchWritesWorkbook(t *testing.T) {
	cfg := testConfig(t)
	stageIntake(t, cfg.IntakeDir, "visit.pdf")

	decoder := &fakeDecoder{docs: map[string]entities.DocumentText{
		"visit.pdf": reportPages("AB-10234"),
	}}
	store := data.NewBatchContainer()
	s := NewScheduler(store, reportparser.NewReportParser(), decoder, cfg)

	if err := s.ProcessBatch(); err != nil {
		t.Fatalf("expected batch to succeed, got %v", err)
	}

	f, err := excelize.OpenFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("expected output workbook written, got %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue(xlsxwriter.SheetName, "A2")
	if err != nil || got != "visit.pdf" {
		t.Errorf("expected workbook row for visit.pdf, got %q (err %v)", got, err)
	}
}

func TestIntakeDocumentsFiltersAndSorts(t *testing.T) {
	cfg := testConfig(t)
	stageIntake(t, cfg.IntakeDir, "z.pdf", "a.PDF", "skip.csv")
	if err := os.MkdirAll(filepath.Join(cfg.IntakeDir, "nested.pdf"), 0755); err != nil {
		t.Fatalf("failed to create decoy dir: %v", err)
	}

	s := NewScheduler(data.NewBatchContainer(), reportparser.NewReportParser(), &fakeDecoder{}, cfg)

	paths, err := s.intakeDocuments()
	if err != nil {
		t.Fatalf("expected listing to succeed, got %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 documents, got %v", paths)
	}
	if filepath.Base(paths[0]) != "a.PDF" || filepath.Base(paths[1]) != "z.pdf" {
		t.Errorf("expected sorted pdf-only listing, got %v", paths)
	}
}
