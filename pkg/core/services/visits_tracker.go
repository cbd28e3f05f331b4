package services

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/events"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

type VisitsTrackerOptions struct {
	TrackOrphanVisits   bool
	AnonymizeRemoteAddr bool
}

// VisitsTracker persists visits, geolocates them and dispatches VisitLocated.
type VisitsTracker struct {
	repo       ports.VisitRepository
	dispatcher ports.EventDispatcher
	locator    ports.IPLocationResolver // optional
	logger     logger.Logger
	opts       VisitsTrackerOptions
	now        func() time.Time
}

func NewVisitsTracker(
	repo ports.VisitRepository,
	dispatcher ports.EventDispatcher,
	locator ports.IPLocationResolver,
	log logger.Logger,
	opts VisitsTrackerOptions,
) *VisitsTracker {
	return &VisitsTracker{
		repo:       repo,
		dispatcher: dispatcher,
		locator:    locator,
		logger:     log,
		opts:       opts,
		now:        time.Now,
	}
}

func (t *VisitsTracker) Track(ctx context.Context, link *domain.Link, visitor domain.Visitor) error {
	visit := t.newVisit(domain.VisitTypeValidShortURL, visitor)
	visit.LinkID = &link.ID
	visit.Link = link
	return t.track(ctx, visit, visitor.RemoteAddr)
}

func (t *VisitsTracker) TrackInvalidShortURLVisit(ctx context.Context, visitor domain.Visitor) error {
	return t.trackOrphan(ctx, domain.VisitTypeInvalidShortURL, visitor)
}

func (t *VisitsTracker) TrackBaseURLVisit(ctx context.Context, visitor domain.Visitor) error {
	return t.trackOrphan(ctx, domain.VisitTypeBaseURL, visitor)
}

func (t *VisitsTracker) TrackRegular404Visit(ctx context.Context, visitor domain.Visitor) error {
	return t.trackOrphan(ctx, domain.VisitTypeRegular404, visitor)
}

func (t *VisitsTracker) trackOrphan(ctx context.Context, visitType domain.VisitType, visitor domain.Visitor) error {
	if !t.opts.TrackOrphanVisits {
		return nil
	}
	return t.track(ctx, t.newVisit(visitType, visitor), visitor.RemoteAddr)
}

func (t *VisitsTracker) newVisit(visitType domain.VisitType, visitor domain.Visitor) *domain.Visit {
	visit := &domain.Visit{
		Type:         visitType,
		Referer:      visitor.Referer,
		UserAgent:    visitor.UserAgent,
		PotentialBot: IsPotentialBot(visitor.UserAgent),
		Location:     visitor.Location,
		CreatedAt:    t.now(),
	}

	if addr := visitor.RemoteAddr; addr != "" {
		if t.opts.AnonymizeRemoteAddr {
			addr = AnonymizeIP(addr)
		}
		visit.RemoteAddr = &addr
	}
	if visitor.VisitedURL != "" {
		visitedURL := visitor.VisitedURL
		visit.VisitedURL = &visitedURL
	}
	return visit
}

func (t *VisitsTracker) track(ctx context.Context, visit *domain.Visit, originalIP string) error {
	if err := t.repo.RecordVisit(ctx, visit); err != nil {
		return err
	}

	if visit.Location == nil {
		t.locate(ctx, visit, originalIP)
	}
	t.dispatcher.DispatchVisitLocated(ctx, events.VisitLocated{
		VisitID:           visit.ID,
		OriginalIPAddress: originalIP,
	})
	return nil
}

// locate resolves and stores the visit location. Failures only cost the location.
func (t *VisitsTracker) locate(ctx context.Context, visit *domain.Visit, ip string) {
	if t.locator == nil || ip == "" {
		return
	}

	location, err := t.locator.Resolve(ctx, ip)
	if err != nil {
		t.logger.Warn("Failed to locate visit", logger.Int64("visit_id", visit.ID), logger.Err(err))
		return
	}
	if location == nil {
		return
	}

	if err := t.repo.UpdateVisitLocation(ctx, visit.ID, location); err != nil {
		t.logger.Warn("Failed to store visit location", logger.Int64("visit_id", visit.ID), logger.Err(err))
		return
	}
	visit.Location = location
}

var _ ports.VisitsTracker = (*VisitsTracker)(nil)
