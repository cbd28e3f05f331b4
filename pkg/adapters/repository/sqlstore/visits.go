package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
)

const visitColumns = `v.id, v.link_id, v.type, v.referer, v.user_agent, v.remote_addr, v.visited_url,
	v.potential_bot, v.country_code, v.country_name, v.region_name, v.city_name,
	v.latitude, v.longitude, v.timezone, v.created_at`

type visitRow struct {
	ID           int64           `db:"id"`
	LinkID       sql.NullInt64   `db:"link_id"`
	Type         string          `db:"type"`
	Referer      string          `db:"referer"`
	UserAgent    string          `db:"user_agent"`
	RemoteAddr   sql.NullString  `db:"remote_addr"`
	VisitedURL   sql.NullString  `db:"visited_url"`
	PotentialBot bool            `db:"potential_bot"`
	CountryCode  sql.NullString  `db:"country_code"`
	CountryName  sql.NullString  `db:"country_name"`
	RegionName   sql.NullString  `db:"region_name"`
	CityName     sql.NullString  `db:"city_name"`
	Latitude     sql.NullFloat64 `db:"latitude"`
	Longitude    sql.NullFloat64 `db:"longitude"`
	Timezone     sql.NullString  `db:"timezone"`
	CreatedAt    time.Time       `db:"created_at"`

	LinkShortCode   sql.NullString `db:"link_short_code"`
	LinkOriginalURL sql.NullString `db:"link_original_url"`
	LinkTitle       sql.NullString `db:"link_title"`
}

func (row visitRow) toDomain() domain.Visit {
	visit := domain.Visit{
		ID:           row.ID,
		Type:         domain.VisitType(row.Type),
		Referer:      row.Referer,
		UserAgent:    row.UserAgent,
		PotentialBot: row.PotentialBot,
		CreatedAt:    row.CreatedAt,
	}
	if row.LinkID.Valid {
		id := row.LinkID.Int64
		visit.LinkID = &id
		if row.LinkShortCode.Valid {
			visit.Link = &domain.Link{
				ID:          id,
				ShortCode:   row.LinkShortCode.String,
				OriginalURL: row.LinkOriginalURL.String,
				Title:       row.LinkTitle.String,
			}
		}
	}
	if row.RemoteAddr.Valid {
		visit.RemoteAddr = &row.RemoteAddr.String
	}
	if row.VisitedURL.Valid {
		visit.VisitedURL = &row.VisitedURL.String
	}
	if row.CountryCode.Valid {
		visit.Location = &domain.VisitLocation{
			CountryCode: row.CountryCode.String,
			CountryName: row.CountryName.String,
			RegionName:  row.RegionName.String,
			CityName:    row.CityName.String,
			Latitude:    row.Latitude.Float64,
			Longitude:   row.Longitude.Float64,
			Timezone:    row.Timezone.String,
		}
	}
	return visit
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *Repository) RecordVisit(ctx context.Context, visit *domain.Visit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var linkID sql.NullInt64
	if visit.LinkID != nil {
		linkID = sql.NullInt64{Int64: *visit.LinkID, Valid: true}
	}

	insert := r.rebind(`INSERT INTO visits (link_id, type, referer, user_agent, remote_addr, visited_url, potential_bot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = tx.QueryRowxContext(ctx, insert,
		linkID, string(visit.Type), visit.Referer, visit.UserAgent,
		nullString(visit.RemoteAddr), nullString(visit.VisitedURL), visit.PotentialBot,
		r.timeArg(visit.CreatedAt),
	).Scan(&visit.ID)
	if err != nil {
		return err
	}

	if visit.LinkID != nil {
		// Denormalized counter read by the dashboard.
		if _, err := tx.ExecContext(ctx, r.rebind(`UPDATE links SET clicks = clicks + 1 WHERE id = ?`), *visit.LinkID); err != nil {
			return err
		}
	}

	if visit.Location != nil {
		if err := r.updateLocation(ctx, tx, visit.ID, visit.Location); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) updateLocation(ctx context.Context, db execer, visitID int64, loc *domain.VisitLocation) error {
	query := r.rebind(`UPDATE visits SET country_code = ?, country_name = ?, region_name = ?, city_name = ?,
		latitude = ?, longitude = ?, timezone = ? WHERE id = ?`)
	_, err := db.ExecContext(ctx, query,
		loc.CountryCode, loc.CountryName, loc.RegionName, loc.CityName,
		loc.Latitude, loc.Longitude, loc.Timezone, visitID,
	)
	return err
}

func (r *Repository) UpdateVisitLocation(ctx context.Context, visitID int64, location *domain.VisitLocation) error {
	return r.updateLocation(ctx, r.db, visitID, location)
}

func (r *Repository) FindVisit(ctx context.Context, id int64) (*domain.Visit, error) {
	query := r.rebind(`SELECT ` + visitColumns + `,
		l.short_code AS link_short_code, l.original_url AS link_original_url, l.title AS link_title
		FROM visits v LEFT JOIN links l ON l.id = v.link_id
		WHERE v.id = ?`)

	var row visitRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	visit := row.toDomain()
	return &visit, nil
}

// orphanVisitsWhere builds the shared filter. ok is false when the API key
// may not see orphan visits at all, so nothing needs to be queried.
func (r *Repository) orphanVisitsWhere(f domain.OrphanVisitsCountFiltering) (where string, args []interface{}, ok bool) {
	if f.APIKey.HasRole(domain.RoleNoOrphanVisits) {
		return "", nil, false
	}

	where = " WHERE v.link_id IS NULL"
	if f.DateRange != nil {
		if f.DateRange.Start != nil {
			where += " AND v.created_at >= ?"
			args = append(args, r.timeArg(*f.DateRange.Start))
		}
		if f.DateRange.End != nil {
			where += " AND v.created_at <= ?"
			args = append(args, r.timeArg(*f.DateRange.End))
		}
	}
	if f.ExcludeBots {
		where += " AND NOT v.potential_bot"
	}
	return where, args, true
}

func (r *Repository) CountOrphanVisits(ctx context.Context, filtering domain.OrphanVisitsCountFiltering) (int64, error) {
	where, args, ok := r.orphanVisitsWhere(filtering)
	if !ok {
		return 0, nil
	}

	var count int64
	err := r.db.GetContext(ctx, &count, r.rebind(`SELECT COUNT(*) FROM visits v`+where), args...)
	return count, err
}

func (r *Repository) FindOrphanVisits(ctx context.Context, filtering domain.OrphanVisitsListFiltering) ([]domain.Visit, error) {
	where, args, ok := r.orphanVisitsWhere(filtering.OrphanVisitsCountFiltering)
	if !ok {
		return []domain.Visit{}, nil
	}

	query := `SELECT ` + visitColumns + ` FROM visits v` + where + ` ORDER BY v.created_at DESC, v.id DESC`
	switch {
	case filtering.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filtering.Limit, filtering.Offset)
	case filtering.Offset > 0 && r.platform.IsFileBased():
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filtering.Offset)
	case filtering.Offset > 0:
		query += " OFFSET ?"
		args = append(args, filtering.Offset)
	}

	var rows []visitRow
	if err := r.db.SelectContext(ctx, &rows, r.rebind(query), args...); err != nil {
		return nil, err
	}

	visits := make([]domain.Visit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, row.toDomain())
	}
	return visits, nil
}

func (r *Repository) GetLinkStats(ctx context.Context, linkID int64) (*domain.LinkStats, error) {
	stats := &domain.LinkStats{
		Referrers:   make(map[string]int64),
		DailyClicks: []domain.DailyClick{},
	}

	err := r.db.GetContext(ctx, &stats.TotalClicks, r.rebind(`SELECT COUNT(*) FROM visits WHERE link_id = ?`), linkID)
	if err != nil {
		return nil, err
	}

	var referrers []struct {
		Referer string `db:"referer"`
		Count   int64  `db:"c"`
	}
	err = r.db.SelectContext(ctx, &referrers, r.rebind(
		`SELECT referer, COUNT(*) AS c FROM visits WHERE link_id = ? GROUP BY referer ORDER BY c DESC LIMIT 10`), linkID)
	if err != nil {
		return nil, err
	}
	for _, ref := range referrers {
		name := ref.Referer
		if name == "" {
			name = "Direct"
		}
		stats.Referrers[name] = ref.Count
	}

	// Last 30 days with traffic
	day := r.dayExpr("created_at")
	err = r.db.SelectContext(ctx, &stats.DailyClicks, r.rebind(`
		SELECT `+day+` AS date, COUNT(*) AS count
		FROM visits
		WHERE link_id = ?
		GROUP BY `+day+`
		ORDER BY date DESC
		LIMIT 30`), linkID)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
