package domain

// GeoType identifies the Census geography level of a Geography.
type GeoType string

const (
	GeoCounty GeoType = "county"
	GeoPlace  GeoType = "place"
	GeoCDP    GeoType = "cdp"
)

// Geography is a single admin geography processed by the pipeline.
// Counties carry a 5-digit GEOID; places and CDPs a 7-digit one.
type Geography struct {
	Type             GeoType `json:"type"`
	GeoID            string  `json:"geoid"`
	Label            string  `json:"label"`
	ContainingCounty string  `json:"containingCounty,omitempty"`
}

// NamedGeo is a bare geoid/label pair as produced by the geography resolver
// for county, place, and CDP list documents.
type NamedGeo struct {
	GeoID string `json:"geoid"`
	Label string `json:"label"`
}

// FetchAttempt records one probe against a statistical API endpoint.
// URLs are stored redacted; attempts exist only to feed diagnostics.
type FetchAttempt struct {
	Year            int    `json:"year"`
	Series          string `json:"series"`
	Endpoint        string `json:"endpoint"`
	URL             string `json:"url"`
	Status          int    `json:"status"`
	OK              bool   `json:"ok"`
	ResponsePreview string `json:"response_preview"`
}
