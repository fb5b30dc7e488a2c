package entities

// DocumentText is the ordered page text of one decoded document, one string
// per page. It is the opaque output of the page-text decoder and is never
// mutated by the engine.
type DocumentText []string

// CompositeRow is the fully merged per-document record: one PatientRecord
// plus the region measurements that produced a valid row, in catalog order.
// It is the unit handed to the spreadsheet writer.
type CompositeRow struct {
	Source  string              `json:"source"`
	Patient PatientRecord       `json:"patient"`
	Regions []RegionMeasurement `json:"regions"`
}

// PatientColumns is the fixed spreadsheet column order for the patient header
// fields.
var PatientColumns = []string{
	"Patient ID",
	"Birth Date",
	"Age",
	"Height (in)",
	"Weight (lbs)",
	"Sex",
	"Ethnicity",
	"Measured",
	"Analyzed",
}

var regionColumns = []string{
	"%Fat",
	"Centile",
	"Total Mass (kg)",
	"Fat (g)",
	"Lean (g)",
	"BMC (g)",
}

// RegionColumns returns the six column names for one region, namespaced by
// the region name. The namespacing keeps keys across all regions of a row
// disjoint.
func RegionColumns(region string) []string {
	cols := make([]string, 0, len(regionColumns))
	for _, c := range regionColumns {
		cols = append(cols, region+" "+c)
	}
	return cols
}

// Flatten returns the row as a flat column-name to value mapping. Patient
// columns are always present; region columns appear only for regions that
// produced a measurement.
func (c CompositeRow) Flatten() map[string]string {
	out := map[string]string{
		"Patient ID":   c.Patient.PatientID,
		"Birth Date":   c.Patient.BirthDate,
		"Age":          c.Patient.Age,
		"Height (in)":  c.Patient.Height,
		"Weight (lbs)": c.Patient.Weight,
		"Sex":          c.Patient.Sex,
		"Ethnicity":    c.Patient.Ethnicity,
		"Measured":     c.Patient.Measured,
		"Analyzed":     c.Patient.Analyzed,
	}

	for _, m := range c.Regions {
		out[m.Region+" %Fat"] = m.PercentFat
		out[m.Region+" Centile"] = m.Centile
		out[m.Region+" Total Mass (kg)"] = m.TotalMass
		out[m.Region+" Fat (g)"] = m.Fat
		out[m.Region+" Lean (g)"] = m.Lean
		out[m.Region+" BMC (g)"] = m.BMC
	}

	return out
}

// HasRegion reports whether the row already carries a measurement for the
// given region.
func (c CompositeRow) HasRegion(region string) bool {
	for _, m := range c.Regions {
		if m.Region == region {
			return true
		}
	}
	return false
}
