package services

import (
	"context"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/paginator"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// OrphanVisitsPaginatorAdapter exposes orphan visits to the paginator.
// The count is computed once per adapter; slices always hit the repository.
type OrphanVisitsPaginatorAdapter struct {
	repo   ports.VisitRepository
	params domain.VisitsParams
	apiKey *domain.APIKey
	count  paginator.CountCache
}

func NewOrphanVisitsPaginatorAdapter(repo ports.VisitRepository, params domain.VisitsParams, apiKey *domain.APIKey) *OrphanVisitsPaginatorAdapter {
	return &OrphanVisitsPaginatorAdapter{repo: repo, params: params, apiKey: apiKey}
}

func (a *OrphanVisitsPaginatorAdapter) Count(ctx context.Context) (int64, error) {
	return a.count.Get(ctx, a.doCount)
}

func (a *OrphanVisitsPaginatorAdapter) doCount(ctx context.Context) (int64, error) {
	return a.repo.CountOrphanVisits(ctx, a.countFiltering())
}

func (a *OrphanVisitsPaginatorAdapter) Slice(ctx context.Context, offset, length int) ([]domain.Visit, error) {
	return a.repo.FindOrphanVisits(ctx, domain.OrphanVisitsListFiltering{
		OrphanVisitsCountFiltering: a.countFiltering(),
		Limit:                      length,
		Offset:                     offset,
	})
}

func (a *OrphanVisitsPaginatorAdapter) countFiltering() domain.OrphanVisitsCountFiltering {
	return domain.OrphanVisitsCountFiltering{
		DateRange:   a.params.DateRange,
		ExcludeBots: a.params.ExcludeBots,
		APIKey:      a.apiKey,
	}
}

var _ paginator.Adapter[domain.Visit] = (*OrphanVisitsPaginatorAdapter)(nil)
