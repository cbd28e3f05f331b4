package ports

import (
	"context"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/events"
	"github.com/wadjakorntonsri/go-shortlink/pkg/paginator"
)

// LinkRepository defines storage operations for links
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByShortCode(ctx context.Context, code string) (*domain.Link, error)
	GetByID(ctx context.Context, id int64) (*domain.Link, error)
	Update(ctx context.Context, link *domain.Link) error
	Delete(ctx context.Context, id int64) error // Soft delete
	List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error)
	Count(ctx context.Context, filters map[string]interface{}) (int64, error)
	Dump(ctx context.Context) ([]domain.Link, error) // For migration
	GetDashboardStats(ctx context.Context, limit int, filters map[string]interface{}) ([]domain.Link, int64, error)
}

// VisitRepository defines storage operations for visits, orphan or not
type VisitRepository interface {
	RecordVisit(ctx context.Context, visit *domain.Visit) error
	UpdateVisitLocation(ctx context.Context, visitID int64, location *domain.VisitLocation) error
	// FindVisit returns nil, nil when the visit does not exist.
	FindVisit(ctx context.Context, id int64) (*domain.Visit, error)
	GetLinkStats(ctx context.Context, linkID int64) (*domain.LinkStats, error)
	CountOrphanVisits(ctx context.Context, filtering domain.OrphanVisitsCountFiltering) (int64, error)
	FindOrphanVisits(ctx context.Context, filtering domain.OrphanVisitsListFiltering) ([]domain.Visit, error)
}

type APIKeyRepository interface {
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	// FindAPIKey returns nil, nil when the key does not exist.
	FindAPIKey(ctx context.Context, key string) (*domain.APIKey, error)
}

// IPLocationResolver resolves a geolocation for an IP address.
// Implementations return nil, nil when the address cannot be located.
type IPLocationResolver interface {
	Resolve(ctx context.Context, ip string) (*domain.VisitLocation, error)
}

type EventDispatcher interface {
	DispatchVisitLocated(ctx context.Context, event events.VisitLocated)
}

// MatomoTracker accumulates tracking parameters for a single page view.
type MatomoTracker interface {
	SetURL(url string)
	SetUserAgent(userAgent string)
	SetURLReferrer(referrer string)
	SetCity(city string)
	SetCountry(country string)
	SetLatitude(lat float64)
	SetLongitude(long float64)
	SetIP(ip string)
	SetCustomTrackingParameter(name, value string)
	DoTrackPageView(ctx context.Context, title string) error
}

type MatomoTrackerBuilder interface {
	BuildMatomoTracker() (MatomoTracker, error)
}

// VisitsTracker records visits and announces them once located.
type VisitsTracker interface {
	Track(ctx context.Context, link *domain.Link, visitor domain.Visitor) error
	TrackInvalidShortURLVisit(ctx context.Context, visitor domain.Visitor) error
	TrackBaseURLVisit(ctx context.Context, visitor domain.Visitor) error
	TrackRegular404Visit(ctx context.Context, visitor domain.Visitor) error
}

// LinkService defines the business logic operations
type LinkService interface {
	Shorten(ctx context.Context, originalURL, title string, tags []string, customCode string) (*domain.Link, error)
	GetOriginalURL(ctx context.Context, code string) (string, error)
	UpdateLink(ctx context.Context, id int64, originalURL, title string, tags []string) (*domain.Link, error)
	DeleteLink(ctx context.Context, id int64) error
	ListLinks(ctx context.Context, page, limit int, search string, tag string) ([]domain.Link, int64, error)

	// Stats
	RecordVisit(ctx context.Context, shortCode string, visitor domain.Visitor) error
	GetLinkStats(ctx context.Context, id int64) (*domain.LinkStats, error)
	GetDashboard(ctx context.Context, limit int, search, tag, domainFilter string) ([]domain.Link, int64, error)
	GetLinkByShortCode(ctx context.Context, code string) (*domain.Link, error)
}

type VisitService interface {
	OrphanVisits(ctx context.Context, params domain.VisitsParams, apiKey *domain.APIKey) (*paginator.Page[domain.Visit], error)
	TrackOrphanVisit(ctx context.Context, visitType domain.VisitType, visitor domain.Visitor) error
}
