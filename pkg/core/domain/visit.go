package domain

import "time"

type VisitType string

const (
	VisitTypeValidShortURL   VisitType = "valid_short_url"
	VisitTypeInvalidShortURL VisitType = "invalid_short_url"
	VisitTypeBaseURL         VisitType = "base_url"
	VisitTypeRegular404      VisitType = "regular_404"
	VisitTypeImported        VisitType = "imported"
)

// Visit represents a request to a short link, or to a URL that matched none (orphan visit).
type Visit struct {
	ID           int64          `json:"id"`
	LinkID       *int64         `json:"link_id,omitempty"`
	Link         *Link          `json:"-"`
	Type         VisitType      `json:"type"`
	Referer      string         `json:"referer"`
	UserAgent    string         `json:"user_agent"`
	RemoteAddr   *string        `json:"remote_addr,omitempty"` // Anonymized unless disabled
	VisitedURL   *string        `json:"visited_url,omitempty"`
	PotentialBot bool           `json:"potential_bot"`
	Location     *VisitLocation `json:"location,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsOrphan reports whether the visit is not attached to any link.
func (v *Visit) IsOrphan() bool {
	return v.LinkID == nil
}

type VisitLocation struct {
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	RegionName  string  `json:"region_name"`
	CityName    string  `json:"city_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

// Visitor is what we know about an incoming request before it becomes a Visit.
type Visitor struct {
	Referer    string
	UserAgent  string
	RemoteAddr string
	VisitedURL string
	// Location is set when the edge in front of us already geolocated the request.
	Location *VisitLocation
}

// Stats represents aggregated statistics for a link
type LinkStats struct {
	TotalClicks int64            `json:"total_clicks"`
	Referrers   map[string]int64 `json:"referrers"`    // count by domain
	DailyClicks []DailyClick     `json:"daily_clicks"` // timeline
}

type DailyClick struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
