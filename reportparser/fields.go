// Package reportparser extracts structured body-composition records from the
// decoded page text of scanned DXA reports. It targets the one fixed layout
// produced by the scanner software and makes no attempt to generalise to
// arbitrary report formats.
package reportparser

import (
	"strings"
	"unicode"

	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// Header labels as printed by the report template. Each label appears exactly
// once per document in practice, so first-match-wins is sufficient.
const (
	labelPatientID = "Patient ID:"
	labelBirthDate = "Birth Date:"
	labelAge       = "Age:"
	labelHeight    = "Height:"
	labelWeight    = "Weight:"
	labelSex       = "Sex:"
	labelEthnicity = "Ethnicity:"
	labelMeasured  = "Measured:"
	labelAnalyzed  = "Analyzed:"
)

// extractValue finds the first occurrence of label in text and returns the
// value that follows it, up to the terminator. An empty terminator means the
// value ends at the next whitespace run; a non-empty terminator is a literal
// unit string such as "in" or "lbs". Thousands-separator commas are stripped
// from the value. If the label does not occur, or the value never reaches a
// terminator before the end of the text, the result is ValueMissing.
//
// The comma stripping also mangles decimal-comma values ("185,5" becomes
// "1855"). That matches the report template's thousands-separator convention
// and is kept as-is; values are re-emitted as raw text so consumers can see
// exactly what was extracted.
func extractValue(text, label, terminator string) string {
	idx := strings.Index(text, label)
	if idx == -1 {
		return entities.ValueMissing
	}

	rest := strings.TrimLeftFunc(text[idx+len(label):], unicode.IsSpace)

	var value string
	if terminator == "" {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end == -1 {
			// Value runs to the end of the text with no trailing delimiter.
			// The template always emits one, so treat this as no match.
			return entities.ValueMissing
		}
		value = rest[:end]
	} else {
		end := strings.Index(rest, terminator)
		if end == -1 {
			return entities.ValueMissing
		}
		value = strings.TrimSpace(rest[:end])
	}

	if value == "" {
		return entities.ValueMissing
	}

	return strings.ReplaceAll(value, ",", "")
}

// ExtractPatientInfo pulls the nine fixed header fields out of one page of
// report text. All nine fields are always present in the result, populated
// with either the extracted value or ValueMissing; it never fails. Height
// terminates at the literal unit "in" and weight at "lbs"; all other fields
// terminate at the next whitespace run.
func ExtractPatientInfo(text string) entities.PatientRecord {
	return entities.PatientRecord{
		PatientID: extractValue(text, labelPatientID, ""),
		BirthDate: extractValue(text, labelBirthDate, ""),
		Age:       extractValue(text, labelAge, ""),
		Height:    extractValue(text, labelHeight, "in"),
		Weight:    extractValue(text, labelWeight, "lbs"),
		Sex:       extractValue(text, labelSex, ""),
		Ethnicity: extractValue(text, labelEthnicity, ""),
		Measured:  extractValue(text, labelMeasured, ""),
		Analyzed:  extractValue(text, labelAnalyzed, ""),
	}
}
