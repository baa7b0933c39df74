package model

// EntityRecord holds the legal-entity attributes resolved for one LEI code.
// All fields default to empty strings when the registry has no data; an
// all-empty record is a valid, cacheable resolution.
type EntityRecord struct {
	LegalName string `json:"legalName"`
	BIC       string `json:"bic"`
	Country   string `json:"country"`
}

// IsEmpty reports whether no attribute was resolved for the entity.
func (r EntityRecord) IsEmpty() bool {
	return r.LegalName == "" && r.BIC == "" && r.Country == ""
}
