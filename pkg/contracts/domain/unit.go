package domain

// UnitClass is the classification bucket for a reported unit string
type UnitClass string

const (
	UnitMonetary UnitClass = "monetary"
	UnitShares   UnitClass = "shares"
	UnitRatio    UnitClass = "ratio"
	UnitPure     UnitClass = "pure"
	UnitUnknown  UnitClass = "unknown"
)

// UnitClassification is the result of classifying a unit string. Currency and
// Scale are populated only for monetary units.
type UnitClassification struct {
	Unit       string    `json:"unit"`
	Class      UnitClass `json:"unit_class"`
	IsMonetary bool      `json:"is_monetary"`
	Currency   string    `json:"currency,omitempty"`
	Scale      string    `json:"scale,omitempty"`
}
