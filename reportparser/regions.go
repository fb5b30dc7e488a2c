package reportparser

import (
	"strings"

	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// CompositionHeading is the literal table heading that marks a page as
// carrying the composition table. Only pages containing it are scanned for
// region rows.
const CompositionHeading = "Total Body Tissue Quantitation Composition (Enhanced Analysis)"

// Regions is the fixed catalog of anatomical regions reported by the
// composition table, in output order. It is a closed enumeration: region
// names are never discovered from the document.
var Regions = []string{
	"Arms",
	"Arm Right",
	"Arm Left",
	"Legs",
	"Leg Right",
	"Leg Left",
	"Trunk",
	"Android",
	"Gynoid",
	"Total",
}

// regionTokenCount is the number of positional values in one region row.
const regionTokenCount = 6

// HasCompositionHeading reports whether a page's text carries the composition
// table heading.
func HasCompositionHeading(page string) bool {
	return strings.Contains(page, CompositionHeading)
}

// ExtractRegion locates the composition-table row for one region in the given
// text and reconstructs its six values. Candidate line segments are taken in
// document order; the first one that cleans and splits into at least six
// tokens wins, and its first six tokens map in fixed order to %Fat, Centile,
// Total Mass, Fat, Lean and BMC. Surplus tokens are discarded. If no
// candidate qualifies the second return value is false and the region is
// simply absent from the document's row.
//
// The candidate search is an unanchored substring match, so a region name may
// hit inside an unrelated line (e.g. "Total" inside "Subtotal"). Existing
// spreadsheets were produced under that matching, so do not tighten the
// anchor without revisiting downstream expectations.
func ExtractRegion(text, region string) (entities.RegionMeasurement, bool) {
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, region)
		if idx == -1 {
			continue
		}

		tokens := splitMeasurementTokens(line[idx:])
		if len(tokens) < regionTokenCount {
			continue
		}

		return entities.RegionMeasurement{
			Region:     region,
			PercentFat: tokens[0],
			Centile:    tokens[1],
			TotalMass:  tokens[2],
			Fat:        tokens[3],
			Lean:       tokens[4],
			BMC:        tokens[5],
		}, true
	}

	return entities.RegionMeasurement{}, false
}

// splitMeasurementTokens cleans one candidate line segment and splits it into
// value tokens: every character that is not a digit, period, comma, hyphen or
// spacing is stripped, then the remainder is trimmed, whitespace runs are
// collapsed, and the result is split on whitespace.
func splitMeasurementTokens(segment string) []string {
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t':
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}
