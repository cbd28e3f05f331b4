package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/events"
)

type mockVisitRepository struct {
	mock.Mock
}

func (m *mockVisitRepository) RecordVisit(ctx context.Context, visit *domain.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *mockVisitRepository) UpdateVisitLocation(ctx context.Context, visitID int64, location *domain.VisitLocation) error {
	args := m.Called(ctx, visitID, location)
	return args.Error(0)
}

func (m *mockVisitRepository) FindVisit(ctx context.Context, id int64) (*domain.Visit, error) {
	args := m.Called(ctx, id)
	visit, _ := args.Get(0).(*domain.Visit)
	return visit, args.Error(1)
}

func (m *mockVisitRepository) GetLinkStats(ctx context.Context, linkID int64) (*domain.LinkStats, error) {
	args := m.Called(ctx, linkID)
	stats, _ := args.Get(0).(*domain.LinkStats)
	return stats, args.Error(1)
}

func (m *mockVisitRepository) CountOrphanVisits(ctx context.Context, filtering domain.OrphanVisitsCountFiltering) (int64, error) {
	args := m.Called(ctx, filtering)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockVisitRepository) FindOrphanVisits(ctx context.Context, filtering domain.OrphanVisitsListFiltering) ([]domain.Visit, error) {
	args := m.Called(ctx, filtering)
	visits, _ := args.Get(0).([]domain.Visit)
	return visits, args.Error(1)
}

type mockLinkRepository struct {
	mock.Mock
}

func (m *mockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *mockLinkRepository) GetByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	link, _ := args.Get(0).(*domain.Link)
	return link, args.Error(1)
}

func (m *mockLinkRepository) GetByID(ctx context.Context, id int64) (*domain.Link, error) {
	args := m.Called(ctx, id)
	link, _ := args.Get(0).(*domain.Link)
	return link, args.Error(1)
}

func (m *mockLinkRepository) Update(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *mockLinkRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLinkRepository) List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error) {
	args := m.Called(ctx, limit, offset, filters)
	links, _ := args.Get(0).([]domain.Link)
	return links, args.Error(1)
}

func (m *mockLinkRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLinkRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	args := m.Called(ctx)
	links, _ := args.Get(0).([]domain.Link)
	return links, args.Error(1)
}

func (m *mockLinkRepository) GetDashboardStats(ctx context.Context, limit int, filters map[string]interface{}) ([]domain.Link, int64, error) {
	args := m.Called(ctx, limit, filters)
	links, _ := args.Get(0).([]domain.Link)
	return links, args.Get(1).(int64), args.Error(2)
}

type mockVisitsTracker struct {
	mock.Mock
}

func (m *mockVisitsTracker) Track(ctx context.Context, link *domain.Link, visitor domain.Visitor) error {
	return m.Called(ctx, link, visitor).Error(0)
}

func (m *mockVisitsTracker) TrackInvalidShortURLVisit(ctx context.Context, visitor domain.Visitor) error {
	return m.Called(ctx, visitor).Error(0)
}

func (m *mockVisitsTracker) TrackBaseURLVisit(ctx context.Context, visitor domain.Visitor) error {
	return m.Called(ctx, visitor).Error(0)
}

func (m *mockVisitsTracker) TrackRegular404Visit(ctx context.Context, visitor domain.Visitor) error {
	return m.Called(ctx, visitor).Error(0)
}

type recordingDispatcher struct {
	events []events.VisitLocated
}

func (d *recordingDispatcher) DispatchVisitLocated(_ context.Context, event events.VisitLocated) {
	d.events = append(d.events, event)
}

type stubLocator struct {
	location *domain.VisitLocation
	err      error
	ips      []string
}

func (l *stubLocator) Resolve(_ context.Context, ip string) (*domain.VisitLocation, error) {
	l.ips = append(l.ips, ip)
	return l.location, l.err
}
