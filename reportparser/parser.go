package reportparser

import (
	"strings"

	"github.com/varlaud/dexa-extract/interfaces"
	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// Compile-time check to ensure ReportParser implements Parser interface
var _ interfaces.Parser = (*ReportParser)(nil)

// ReportParser implements the Parser interface. It is stateless: extraction
// over identical input always yields identical output.
type ReportParser struct{}

// NewReportParser creates a new ReportParser instance
func NewReportParser() *ReportParser {
	return &ReportParser{}
}

// ParseDocument builds one composite row from the decoded page text of one
// document. Patient header fields come from the first informative page;
// region rows come only from pages carrying the composition heading, with the
// reconstructor invoked once per catalog region over that text. A document
// with no matching labels or regions still produces a valid row of markers
// and omissions — parsing never fails.
func (p *ReportParser) ParseDocument(source string, doc entities.DocumentText) entities.CompositeRow {
	row := entities.CompositeRow{
		Source:  source,
		Patient: ExtractPatientInfo(headerPage(doc)),
	}

	composition := compositionText(doc)
	if composition == "" {
		return row
	}

	for _, region := range Regions {
		if m, ok := ExtractRegion(composition, region); ok {
			row.Regions = append(row.Regions, m)
		}
	}

	return row
}

// headerPage selects the first page carrying recognizable header text: the
// first page containing the patient ID label. Falls back to page one, which
// then resolves every field to the missing marker if the labels are absent.
func headerPage(doc entities.DocumentText) string {
	for _, page := range doc {
		if strings.Contains(page, labelPatientID) {
			return page
		}
	}
	if len(doc) > 0 {
		return doc[0]
	}
	return ""
}

// compositionText joins the text of every page carrying the composition
// heading, in page order.
func compositionText(doc entities.DocumentText) string {
	var pages []string
	for _, page := range doc {
		if HasCompositionHeading(page) {
			pages = append(pages, page)
		}
	}
	return strings.Join(pages, "\n")
}
