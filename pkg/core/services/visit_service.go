package services

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/paginator"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

type VisitService struct {
	repo    ports.VisitRepository
	tracker ports.VisitsTracker
}

func NewVisitService(repo ports.VisitRepository, tracker ports.VisitsTracker) *VisitService {
	return &VisitService{repo: repo, tracker: tracker}
}

func (s *VisitService) OrphanVisits(ctx context.Context, params domain.VisitsParams, apiKey *domain.APIKey) (*paginator.Page[domain.Visit], error) {
	adapter := NewOrphanVisitsPaginatorAdapter(s.repo, params, apiKey)
	return paginator.Paginate[domain.Visit](ctx, adapter, params.Page, params.ItemsPerPage)
}

func (s *VisitService) TrackOrphanVisit(ctx context.Context, visitType domain.VisitType, visitor domain.Visitor) error {
	switch visitType {
	case domain.VisitTypeInvalidShortURL:
		return s.tracker.TrackInvalidShortURLVisit(ctx, visitor)
	case domain.VisitTypeBaseURL:
		return s.tracker.TrackBaseURLVisit(ctx, visitor)
	case domain.VisitTypeRegular404:
		return s.tracker.TrackRegular404Visit(ctx, visitor)
	default:
		return fmt.Errorf("%q is not an orphan visit type", visitType)
	}
}
