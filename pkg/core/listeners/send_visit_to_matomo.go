// Package listeners reacts to domain events with side effects that must not
// affect whoever emitted the event.
package listeners

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/events"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// ShortURLStringifier renders the public URL of a link.
type ShortURLStringifier interface {
	Stringify(link *domain.Link) string
}

// SendVisitToMatomo forwards located visits to Matomo. It never returns an
// error and never panics: analytics failures are logged and dropped.
type SendVisitToMatomo struct {
	visits      ports.VisitRepository
	logger      logger.Logger
	stringifier ShortURLStringifier
	enabled     bool
	builder     ports.MatomoTrackerBuilder
}

func NewSendVisitToMatomo(
	visits ports.VisitRepository,
	log logger.Logger,
	stringifier ShortURLStringifier,
	enabled bool,
	builder ports.MatomoTrackerBuilder,
) *SendVisitToMatomo {
	return &SendVisitToMatomo{
		visits:      visits,
		logger:      log,
		stringifier: stringifier,
		enabled:     enabled,
		builder:     builder,
	}
}

// Handle is an events.VisitLocatedListener.
func (s *SendVisitToMatomo) Handle(ctx context.Context, event events.VisitLocated) {
	if !s.enabled {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logError(event.VisitID, fmt.Errorf("panic: %v", r))
		}
	}()

	visit, err := s.visits.FindVisit(ctx, event.VisitID)
	if err != nil {
		s.logError(event.VisitID, err)
		return
	}
	if visit == nil {
		s.logger.Warn("Tried to send visit to matomo, but it does not exist.",
			logger.Int64("visit_id", event.VisitID))
		return
	}

	if err := s.send(ctx, visit, event.OriginalIPAddress); err != nil {
		s.logError(event.VisitID, err)
	}
}

func (s *SendVisitToMatomo) send(ctx context.Context, visit *domain.Visit, originalIP string) error {
	tracker, err := s.builder.BuildMatomoTracker()
	if err != nil {
		return err
	}

	tracker.SetURL(s.ResolveURLToTrack(visit))
	tracker.SetCustomTrackingParameter("type", string(visit.Type))
	tracker.SetUserAgent(visit.UserAgent)
	tracker.SetURLReferrer(visit.Referer)

	if loc := visit.Location; loc != nil {
		tracker.SetCity(loc.CityName)
		tracker.SetCountry(loc.CountryCode)
		tracker.SetLatitude(loc.Latitude)
		tracker.SetLongitude(loc.Longitude)
	}

	// Matomo anonymizes on its own, so prefer the address before we did.
	ip := originalIP
	if ip == "" && visit.RemoteAddr != nil {
		ip = *visit.RemoteAddr
	}
	if ip != "" {
		tracker.SetIP(ip)
	}

	if visit.IsOrphan() {
		tracker.SetCustomTrackingParameter("orphan", "true")
	}

	// A constant title keeps Matomo from splitting one URL into several actions.
	return tracker.DoTrackPageView(ctx, "")
}

// ResolveURLToTrack returns the short URL of the visit, or the visited URL for orphan visits.
func (s *SendVisitToMatomo) ResolveURLToTrack(visit *domain.Visit) string {
	if visit.Link == nil {
		if visit.VisitedURL == nil {
			return ""
		}
		return *visit.VisitedURL
	}
	return s.stringifier.Stringify(visit.Link)
}

func (s *SendVisitToMatomo) logError(visitID int64, err error) {
	s.logger.Error("An error occurred while trying to send visit to Matomo.",
		logger.Int64("visit_id", visitID), logger.Err(err))
}
