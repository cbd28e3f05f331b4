package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
)

func TestOrphanVisitsPaginatorAdapter_CountIsCached(t *testing.T) {
	ctx := context.Background()
	repo := new(mockVisitRepository)
	apiKey := &domain.APIKey{Key: "key"}
	params := domain.VisitsParams{ExcludeBots: true}

	repo.On("CountOrphanVisits", ctx, domain.OrphanVisitsCountFiltering{ExcludeBots: true, APIKey: apiKey}).
		Return(int64(3), nil).Once()

	adapter := NewOrphanVisitsPaginatorAdapter(repo, params, apiKey)
	for i := 0; i < 3; i++ {
		count, err := adapter.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	}

	repo.AssertNumberOfCalls(t, "CountOrphanVisits", 1)
}

func TestOrphanVisitsPaginatorAdapter_CountErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo := new(mockVisitRepository)
	boom := errors.New("db down")

	repo.On("CountOrphanVisits", ctx, mock.Anything).Return(int64(0), boom).Once()
	repo.On("CountOrphanVisits", ctx, mock.Anything).Return(int64(7), nil).Once()

	adapter := NewOrphanVisitsPaginatorAdapter(repo, domain.VisitsParams{}, nil)

	_, err := adapter.Count(ctx)
	assert.ErrorIs(t, err, boom)

	count, err := adapter.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestOrphanVisitsPaginatorAdapter_Slice(t *testing.T) {
	ctx := context.Background()
	repo := new(mockVisitRepository)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dateRange := &domain.DateRange{Start: &start}
	apiKey := &domain.APIKey{Key: "key"}
	params := domain.VisitsParams{DateRange: dateRange, ExcludeBots: true}

	expectedFiltering := domain.OrphanVisitsListFiltering{
		OrphanVisitsCountFiltering: domain.OrphanVisitsCountFiltering{
			DateRange:   dateRange,
			ExcludeBots: true,
			APIKey:      apiKey,
		},
		Limit:  10,
		Offset: 20,
	}
	visits := []domain.Visit{{ID: 1}, {ID: 2}}
	repo.On("FindOrphanVisits", ctx, expectedFiltering).Return(visits, nil).Twice()

	adapter := NewOrphanVisitsPaginatorAdapter(repo, params, apiKey)

	// Slices are never cached.
	for i := 0; i < 2; i++ {
		result, err := adapter.Slice(ctx, 20, 10)
		require.NoError(t, err)
		assert.Equal(t, visits, result)
	}
	repo.AssertExpectations(t)
}

func TestOrphanVisitsPaginatorAdapter_SliceError(t *testing.T) {
	ctx := context.Background()
	repo := new(mockVisitRepository)
	boom := errors.New("query failed")
	repo.On("FindOrphanVisits", ctx, mock.Anything).Return(nil, boom)

	adapter := NewOrphanVisitsPaginatorAdapter(repo, domain.VisitsParams{}, nil)
	_, err := adapter.Slice(ctx, 0, 10)
	assert.ErrorIs(t, err, boom)
}

func TestVisitService_OrphanVisits(t *testing.T) {
	ctx := context.Background()
	repo := new(mockVisitRepository)
	repo.On("CountOrphanVisits", ctx, mock.Anything).Return(int64(25), nil).Once()
	repo.On("FindOrphanVisits", ctx, mock.MatchedBy(func(f domain.OrphanVisitsListFiltering) bool {
		return f.Limit == 10 && f.Offset == 20
	})).Return([]domain.Visit{{ID: 21}, {ID: 22}, {ID: 23}, {ID: 24}, {ID: 25}}, nil).Once()

	svc := NewVisitService(repo, new(mockVisitsTracker))
	page, err := svc.OrphanVisits(ctx, domain.VisitsParams{Page: 3, ItemsPerPage: 10}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.PagesCount)
	assert.Equal(t, 5, page.ItemsInCurrentPage)
	assert.Equal(t, int64(25), page.TotalItems)
	repo.AssertExpectations(t)
}

func TestVisitService_TrackOrphanVisit(t *testing.T) {
	ctx := context.Background()
	visitor := domain.Visitor{UserAgent: "Mozilla/5.0", VisitedURL: "https://s.test/"}

	tracker := new(mockVisitsTracker)
	tracker.On("TrackBaseURLVisit", ctx, visitor).Return(nil).Once()
	tracker.On("TrackRegular404Visit", ctx, visitor).Return(nil).Once()
	tracker.On("TrackInvalidShortURLVisit", ctx, visitor).Return(nil).Once()

	svc := NewVisitService(new(mockVisitRepository), tracker)
	require.NoError(t, svc.TrackOrphanVisit(ctx, domain.VisitTypeBaseURL, visitor))
	require.NoError(t, svc.TrackOrphanVisit(ctx, domain.VisitTypeRegular404, visitor))
	require.NoError(t, svc.TrackOrphanVisit(ctx, domain.VisitTypeInvalidShortURL, visitor))
	assert.Error(t, svc.TrackOrphanVisit(ctx, domain.VisitTypeValidShortURL, visitor))

	tracker.AssertExpectations(t)
}
