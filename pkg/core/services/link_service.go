package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

var (
	// ErrLinkNotFound is returned when no active link matches a code or id.
	ErrLinkNotFound   = errors.New("link not found")
	ErrShortCodeTaken = errors.New("short code already exists")
	// ErrOriginalURLRequired rejects links without a target.
	ErrOriginalURLRequired = errors.New("original URL is required")
)

const (
	shortCodeLength   = 6
	shortCodeAttempts = 5
)

type LinkService struct {
	repo    ports.LinkRepository
	visits  ports.VisitRepository
	tracker ports.VisitsTracker
}

func NewLinkService(repo ports.LinkRepository, visits ports.VisitRepository, tracker ports.VisitsTracker) *LinkService {
	return &LinkService{repo: repo, visits: visits, tracker: tracker}
}

func (s *LinkService) Shorten(ctx context.Context, originalURL, title string, tags []string, customCode string) (*domain.Link, error) {
	if originalURL == "" {
		return nil, ErrOriginalURLRequired
	}

	code := customCode
	if code == "" {
		var err error
		if code, err = s.generateUniqueShortCode(ctx); err != nil {
			return nil, err
		}
	} else {
		taken, err := s.shortCodeTaken(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrShortCodeTaken
		}
	}

	link := &domain.Link{
		OriginalURL: originalURL,
		ShortCode:   code,
		Title:       title,
		Tags:        tags,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

func (s *LinkService) GetOriginalURL(ctx context.Context, code string) (string, error) {
	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		return "", err
	}
	if link == nil {
		return "", ErrLinkNotFound
	}
	return link.OriginalURL, nil
}

func (s *LinkService) UpdateLink(ctx context.Context, id int64, originalURL, title string, tags []string) (*domain.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}

	// Update fields if provided (naive partial update logic)
	if originalURL != "" {
		link.OriginalURL = originalURL
	}
	if title != "" {
		link.Title = title
	}
	if tags != nil {
		link.Tags = tags
	}
	link.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *LinkService) ListLinks(ctx context.Context, page, limit int, search string, tag string) ([]domain.Link, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	filters := map[string]interface{}{
		"search": search,
		"tag":    tag,
	}

	links, err := s.repo.List(ctx, limit, offset, filters)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	return links, count, nil
}

// RecordVisit tracks a visit to shortCode. Unknown codes are tracked as
// orphan visits and reported as ErrLinkNotFound.
func (s *LinkService) RecordVisit(ctx context.Context, shortCode string, visitor domain.Visitor) error {
	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}
	if link == nil {
		if err := s.tracker.TrackInvalidShortURLVisit(ctx, visitor); err != nil {
			return err
		}
		return ErrLinkNotFound
	}

	return s.tracker.Track(ctx, link, visitor)
}

func (s *LinkService) GetLinkStats(ctx context.Context, id int64) (*domain.LinkStats, error) {
	return s.visits.GetLinkStats(ctx, id)
}

func (s *LinkService) GetDashboard(ctx context.Context, limit int, search, tag, domainFilter string) ([]domain.Link, int64, error) {
	if limit < 1 {
		limit = 10
	}
	filters := map[string]interface{}{
		"search": search,
		"tag":    tag,
		"domain": domainFilter,
	}
	return s.repo.GetDashboardStats(ctx, limit, filters)
}

func (s *LinkService) GetLinkByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

func (s *LinkService) shortCodeTaken(ctx context.Context, code string) (bool, error) {
	existing, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *LinkService) generateUniqueShortCode(ctx context.Context) (string, error) {
	for i := 0; i < shortCodeAttempts; i++ {
		code, err := generateShortCode(shortCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := s.shortCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free short code after %d attempts: %w", shortCodeAttempts, ErrShortCodeTaken)
}

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
