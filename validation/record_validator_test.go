package validation

import (
	"strings"
	"testing"

	"github.com/varlaud/dexa-extract/reportparser"
	"github.com/varlaud/dexa-extract/reportparser/entities"
)

func validRow() entities.CompositeRow {
	return entities.CompositeRow{
		Source: "scan-001.pdf",
		Patient: entities.PatientRecord{
			PatientID: "AB-10234",
			Age:       "46",
			Height:    "65.5",
			Weight:    "1855",
			Sex:       "F",
		},
		Regions: []entities.RegionMeasurement{
			{Region: "Trunk", PercentFat: "30.9", Centile: "58", TotalMass: "31.002", Fat: "9.580", Lean: "20.530", BMC: "0.892"},
		},
	}
}

func TestValidateRow(t *testing.T) {
	validator := NewRecordValidator()

	row := validRow()
	if err := validator.ValidateRow(&row); err != nil {
		t.Errorf("expected valid row to pass, got %v", err)
	}
}

// TestValidateRowMissingValuesPass checks that marker values and empty region
// lists are valid output, not faults.
func TestValidateRowMissingValuesPass(t *testing.T) {
	validator := NewRecordValidator()

	row := entities.CompositeRow{
		Source: "scan-blank.pdf",
		Patient: entities.PatientRecord{
			PatientID: entities.ValueMissing,
			Age:       entities.ValueMissing,
			Sex:       entities.ValueMissing,
		},
	}
	if err := validator.ValidateRow(&row); err != nil {
		t.Errorf("expected all-missing row to pass, got %v", err)
	}
}

func TestValidateRowRejectsStructuralFaults(t *testing.T) {
	validator := NewRecordValidator()

	if err := validator.ValidateRow(nil); err == nil {
		t.Error("expected nil row to fail")
	}

	row := validRow()
	row.Source = ""
	if err := validator.ValidateRow(&row); err == nil {
		t.Error("expected sourceless row to fail")
	}

	row = validRow()
	row.Regions = append(row.Regions, row.Regions[0])
	if err := validator.ValidateRow(&row); err == nil {
		t.Error("expected duplicate region to fail")
	}

	row = validRow()
	row.Regions[0].BMC = ""
	if err := validator.ValidateRow(&row); err == nil {
		t.Error("expected region with empty value to fail")
	}
}

func TestReportBatchQuality(t *testing.T) {
	validator := NewRecordValidator()

	a := validRow()
	b := validRow()
	c := validRow()
	c.Patient.PatientID = entities.ValueMissing
	c.Regions = nil

	report := validator.ReportBatchQuality([]entities.CompositeRow{a, b, c})

	if len(report.DuplicatePatientIDs) != 1 || report.DuplicatePatientIDs[0] != "AB-10234" {
		t.Errorf("expected duplicate AB-10234 reported, got %v", report.DuplicatePatientIDs)
	}
	if report.RowsWithoutPatientID != 1 {
		t.Errorf("expected 1 row without patient ID, got %d", report.RowsWithoutPatientID)
	}
	if report.RowsWithoutRegions != 1 {
		t.Errorf("expected 1 row without regions, got %d", report.RowsWithoutRegions)
	}
}

func TestCountRegionGaps(t *testing.T) {
	validator := NewRecordValidator()

	rows := []entities.CompositeRow{validRow(), validRow()}
	report := validator.ReportBatchQuality(rows)
	validator.CountRegionGaps(report, rows, reportparser.Regions)

	if report.RegionGaps["Trunk"] != 0 {
		t.Errorf("expected no Trunk gaps, got %d", report.RegionGaps["Trunk"])
	}
	if report.RegionGaps["Gynoid"] != 2 {
		t.Errorf("expected Gynoid missing from both rows, got %d", report.RegionGaps["Gynoid"])
	}
}

func TestPlausibilityWarnings(t *testing.T) {
	validator := NewRecordValidator()

	row := validRow()
	if warnings := validator.PlausibilityWarnings(&row); len(warnings) != 0 {
		t.Errorf("expected clean row to warn nothing, got %v", warnings)
	}

	// Markers never warn.
	row.Patient.Age = entities.ValueMissing
	row.Patient.Sex = entities.ValueMissing
	if warnings := validator.PlausibilityWarnings(&row); len(warnings) != 0 {
		t.Errorf("expected marker values to warn nothing, got %v", warnings)
	}

	row = validRow()
	row.Patient.Age = "forty-six"
	row.Patient.Sex = "X"
	row.Regions[0].Centile = "--"

	warnings := validator.PlausibilityWarnings(&row)
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
	joined := strings.Join(warnings, "; ")
	for _, fragment := range []string{"Age", "Sex", "Trunk"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("expected a warning mentioning %s, got %v", fragment, warnings)
		}
	}
}

func TestValidatePatientID(t *testing.T) {
	validator := NewRecordValidator()

	for _, id := range []string{"AB-10234", "12345", "a"} {
		if err := validator.ValidatePatientID(id); err != nil {
			t.Errorf("expected %q to pass, got %v", id, err)
		}
	}

	for _, id := range []string{"", "id with spaces", "semi;colon", strings.Repeat("a", 65)} {
		if err := validator.ValidatePatientID(id); err == nil {
			t.Errorf("expected %q to fail", id)
		}
	}
}

func TestValidateUploadName(t *testing.T) {
	validator := NewRecordValidator()

	if err := validator.ValidateUploadName("scan-001.pdf"); err != nil {
		t.Errorf("expected plain pdf name to pass, got %v", err)
	}
	if err := validator.ValidateUploadName("Scan.PDF"); err != nil {
		t.Errorf("expected uppercase extension to pass, got %v", err)
	}

	for _, name := range []string{"", "dir/scan.pdf", "../scan.pdf", "scan.txt", "scan"} {
		if err := validator.ValidateUploadName(name); err == nil {
			t.Errorf("expected %q to fail", name)
		}
	}
}
