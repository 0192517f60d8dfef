package models

import "strings"

// Stop is the canonical tram stop, normalized from the upstream catalog.
// Optional fields are nil when the upstream did not provide a usable value.
type Stop struct {
	ID           *int    `json:"id,omitempty"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	OutboundCode *int    `json:"outboundCode,omitempty"`
	ReturnCode   *int    `json:"returnCode,omitempty"`
	GtfsCode     *string `json:"gtfsCode,omitempty"`
	Order        *int    `json:"order,omitempty"`
	Image        *string `json:"image,omitempty"`
}

// HasID reports whether the stop carries a usable (non-zero) numeric id.
func (s Stop) HasID() bool {
	return s.ID != nil && *s.ID != 0
}

// Code returns the trimmed GTFS code, or "" when absent.
func (s Stop) Code() string {
	if s.GtfsCode == nil {
		return ""
	}
	return strings.TrimSpace(*s.GtfsCode)
}

// DisplayName returns the name, or "" when absent.
func (s Stop) DisplayName() string {
	if s.Name == nil {
		return ""
	}
	return *s.Name
}
