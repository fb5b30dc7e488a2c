package entities

// ValueMissing marks a header field whose label or value was not found in the
// report text. It is distinct from an empty string, which never occurs in a
// populated field.
const ValueMissing = "N/A"

// PatientRecord holds the demographic and header fields of one report.
// Every field is always set: either the extracted value (commas stripped)
// or ValueMissing.
type PatientRecord struct {
	PatientID string `json:"patientId"`
	BirthDate string `json:"birthDate"`
	Age       string `json:"age"`
	Height    string `json:"height"`
	Weight    string `json:"weight"`
	Sex       string `json:"sex"`
	Ethnicity string `json:"ethnicity"`
	Measured  string `json:"measured"`
	Analyzed  string `json:"analyzed"`
}
