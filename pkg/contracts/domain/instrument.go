package domain

import (
	"fmt"
)

// Source identifies a yield data source
type Source string

const (
	// SourceInvesting is the Cloudflare-protected global treasury site
	SourceInvesting Source = "investing"
	// SourceKofia is the legacy Korean bond association portal
	SourceKofia Source = "kofia"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceInvesting || s == SourceKofia
}

// Instrument identifies a sovereign bond series on the remote source
// by country code and tenor in years. The full catalog is static
// configuration; instruments are never discovered at runtime.
type Instrument struct {
	Country string `json:"country" validate:"required,len=2"`
	Tenor   int    `json:"tenor" validate:"required,min=1"`
	Slug    string `json:"slug,omitempty"`
}

// Code returns the canonical wide-table column code, e.g. "US_10Y".
func (i Instrument) Code() string {
	return fmt.Sprintf("%s_%dY", i.Country, i.Tenor)
}

// PortalInstrument identifies a bond series on the portal source by its
// catalog code, the Korean label the portal renders, and the checkbox id
// that selects it in the export UI.
type PortalInstrument struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	CheckboxID string `json:"checkbox_id"`
}

// PortalBatch is one fixed batch of portal instruments collected in a
// single isolated automation session. Batches partition the catalog;
// membership is static configuration.
type PortalBatch struct {
	Name        string             `json:"name"`
	Instruments []PortalInstrument `json:"instruments"`
}

// CheckboxIDs returns the checkbox ids of the batch in catalog order.
func (b PortalBatch) CheckboxIDs() []string {
	ids := make([]string, len(b.Instruments))
	for i, inst := range b.Instruments {
		ids[i] = inst.CheckboxID
	}
	return ids
}
