package domain

import "time"

// DateRange bounds a query by creation date. Either end may be open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// VisitsParams are the request-level parameters for visit listings.
type VisitsParams struct {
	DateRange    *DateRange
	ExcludeBots  bool
	Page         int
	ItemsPerPage int
}

type OrphanVisitsCountFiltering struct {
	DateRange   *DateRange
	ExcludeBots bool
	APIKey      *APIKey
}

type OrphanVisitsListFiltering struct {
	OrphanVisitsCountFiltering
	Limit  int
	Offset int
}
