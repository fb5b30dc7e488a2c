// Package validation provides validation for extracted records, batch quality
// reporting, and user input checks for the HTTP surface.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/varlaud/dexa-extract/interfaces"
	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// Compile-time check to ensure RecordValidator implements the interface
var _ interfaces.RecordValidator = (*RecordValidator)(nil)

// RecordValidator implements interfaces.RecordValidator
type RecordValidator struct{}

// NewRecordValidator creates a new RecordValidator instance
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{}
}

// numericTokenRe matches the value tokens the engine emits: digits with
// optional sign, periods and leftover thousands commas.
var numericTokenRe = regexp.MustCompile(`^-?[0-9][0-9.,]*$`)

// patientIDRe matches user-supplied patient IDs: the scanner assigns
// alphanumeric IDs with optional dashes, up to 64 characters.
var patientIDRe = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// ValidateRow checks the structural invariants of one composite row. Missing
// markers are valid values everywhere; an all-missing patient record and an
// empty region list are reportable output, not failures.
func (v *RecordValidator) ValidateRow(row *entities.CompositeRow) error {
	if row == nil {
		return fmt.Errorf("nil composite row")
	}
	if row.Source == "" {
		return fmt.Errorf("composite row without source document")
	}

	seen := make(map[string]bool, len(row.Regions))
	for i := range row.Regions {
		m := &row.Regions[i]
		if m.Region == "" {
			return fmt.Errorf("region measurement without region name in %s", row.Source)
		}
		if seen[m.Region] {
			return fmt.Errorf("duplicate region %q in %s", m.Region, row.Source)
		}
		seen[m.Region] = true

		// All-or-nothing: a measurement present in the row must carry all
		// six values.
		for name, value := range map[string]string{
			"%Fat":       m.PercentFat,
			"Centile":    m.Centile,
			"Total Mass": m.TotalMass,
			"Fat":        m.Fat,
			"Lean":       m.Lean,
			"BMC":        m.BMC,
		} {
			if value == "" {
				return fmt.Errorf("region %q in %s has empty %s value", m.Region, row.Source, name)
			}
		}
	}

	return nil
}

// ReportBatchQuality generates a quality report over a full batch. Nothing in
// the report is an error; it exists so operators can see how well the fixed
// layout matched the scanned input.
func (v *RecordValidator) ReportBatchQuality(rows []entities.CompositeRow) *interfaces.BatchQualityReport {
	report := &interfaces.BatchQualityReport{
		RegionGaps: make(map[string]int),
	}

	seenIDs := make(map[string]int)
	for _, row := range rows {
		if row.Patient.PatientID == entities.ValueMissing {
			report.RowsWithoutPatientID++
		} else {
			seenIDs[row.Patient.PatientID]++
		}

		if len(row.Regions) == 0 {
			report.RowsWithoutRegions++
		}
	}

	for id, count := range seenIDs {
		if count > 1 {
			report.DuplicatePatientIDs = append(report.DuplicatePatientIDs, id)
		}
	}

	return report
}

// CountRegionGaps fills the report's per-region gap counts for the given
// region catalog.
func (v *RecordValidator) CountRegionGaps(report *interfaces.BatchQualityReport,
	rows []entities.CompositeRow, regions []string) {

	for _, region := range regions {
		for _, row := range rows {
			if !row.HasRegion(region) {
				report.RegionGaps[region]++
			}
		}
	}
}

// PlausibilityWarnings returns human-readable warnings for values that parsed
// but look wrong: non-numeric age/height/weight, unknown sex codes, region
// tokens that are not numeric text. Markers never warn.
func (v *RecordValidator) PlausibilityWarnings(row *entities.CompositeRow) []string {
	var warnings []string

	check := func(field, value string) {
		if value != entities.ValueMissing && !numericTokenRe.MatchString(value) {
			warnings = append(warnings, fmt.Sprintf("%s %q is not numeric text", field, value))
		}
	}
	check("Age", row.Patient.Age)
	check("Height", row.Patient.Height)
	check("Weight", row.Patient.Weight)

	if sex := row.Patient.Sex; sex != entities.ValueMissing {
		switch strings.ToUpper(sex) {
		case "M", "F", "MALE", "FEMALE":
		default:
			warnings = append(warnings, fmt.Sprintf("Sex %q is not a known code", sex))
		}
	}

	for _, m := range row.Regions {
		for _, value := range []string{m.PercentFat, m.Centile, m.TotalMass, m.Fat, m.Lean, m.BMC} {
			if !numericTokenRe.MatchString(value) {
				warnings = append(warnings, fmt.Sprintf("region %s token %q is not numeric text", m.Region, value))
			}
		}
	}

	return warnings
}

// ValidatePatientID validates user-supplied patient ID input
func (v *RecordValidator) ValidatePatientID(input string) error {
	if input == "" {
		return fmt.Errorf("patient ID cannot be empty")
	}

	if !patientIDRe.MatchString(input) {
		return fmt.Errorf("patient ID must be 1-64 alphanumeric characters or dashes")
	}

	return nil
}

// ValidateUploadName validates an uploaded document file name
func (v *RecordValidator) ValidateUploadName(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}

	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("file name must not contain path separators")
	}

	if strings.ToLower(filepath.Ext(name)) != ".pdf" {
		return fmt.Errorf("only .pdf uploads are accepted, got: %s", name)
	}

	return nil
}
