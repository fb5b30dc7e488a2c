package entities

// RegionMeasurement holds the six composition values reconstructed from one
// region row of the composition table. Values are kept as raw token text,
// never parsed to numbers; numeric interpretation is a downstream concern.
// A RegionMeasurement is always fully populated: a region with no valid row
// produces no measurement at all, never a partial one.
type RegionMeasurement struct {
	Region     string `json:"region"`
	PercentFat string `json:"percentFat"`
	Centile    string `json:"centile"`
	TotalMass  string `json:"totalMass"`
	Fat        string `json:"fat"`
	Lean       string `json:"lean"`
	BMC        string `json:"bmc"`
}
