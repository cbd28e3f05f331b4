package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/database"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// sqliteTimeLayout is the format SQLite date functions understand.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Repository stores links, visits and API keys in SQLite, libSQL or PostgreSQL.
// Queries are written with ? placeholders and rebound per driver.
type Repository struct {
	db       *sqlx.DB
	platform database.Platform
}

func NewRepository(conn *database.Conn) *Repository {
	return &Repository{db: conn.DB(), platform: conn.Platform()}
}

func (r *Repository) rebind(query string) string {
	return r.db.Rebind(query)
}

func (r *Repository) timeArg(t time.Time) interface{} {
	if r.platform == database.PlatformPostgres {
		return t
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func (r *Repository) tagFilter() string {
	if r.platform == database.PlatformPostgres {
		return "jsonb_exists(links.tags::jsonb, ?)"
	}
	return "EXISTS (SELECT 1 FROM json_each(links.tags) WHERE value = ?)"
}

func (r *Repository) dayExpr(column string) string {
	if r.platform == database.PlatformPostgres {
		return "to_char(" + column + ", 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', " + column + ")"
}

type linkRow struct {
	ID          int64          `db:"id"`
	OriginalURL string         `db:"original_url"`
	ShortCode   string         `db:"short_code"`
	Title       string         `db:"title"`
	Tags        sql.NullString `db:"tags"`
	Clicks      int64          `db:"clicks"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	DeletedAt   sql.NullTime   `db:"deleted_at"`
}

func (row linkRow) toDomain() domain.Link {
	link := domain.Link{
		ID:          row.ID,
		OriginalURL: row.OriginalURL,
		ShortCode:   row.ShortCode,
		Title:       row.Title,
		Clicks:      row.Clicks,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.DeletedAt.Valid {
		link.DeletedAt = &row.DeletedAt.Time
	}
	if row.Tags.Valid {
		_ = json.Unmarshal([]byte(row.Tags.String), &link.Tags)
	}
	return link
}

func toLinks(rows []linkRow) []domain.Link {
	links := make([]domain.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toDomain())
	}
	return links
}

const linkColumns = `id, original_url, short_code, title, tags, clicks, created_at, updated_at, deleted_at`

func (r *Repository) Create(ctx context.Context, link *domain.Link) error {
	query := r.rebind(`INSERT INTO links (original_url, short_code, title, tags, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	tagsJSON, err := json.Marshal(link.Tags)
	if err != nil {
		return err
	}

	return r.db.QueryRowxContext(ctx, query,
		link.OriginalURL, link.ShortCode, link.Title, string(tagsJSON),
		r.timeArg(link.CreatedAt), r.timeArg(link.UpdatedAt),
	).Scan(&link.ID)
}

func (r *Repository) getLink(ctx context.Context, where string, arg interface{}) (*domain.Link, error) {
	query := r.rebind(`SELECT ` + linkColumns + ` FROM links WHERE ` + where + ` AND deleted_at IS NULL`)

	var row linkRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	link := row.toDomain()
	return &link, nil
}

func (r *Repository) GetByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	return r.getLink(ctx, "short_code = ?", code)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Link, error) {
	return r.getLink(ctx, "id = ?", id)
}

func (r *Repository) Update(ctx context.Context, link *domain.Link) error {
	query := r.rebind(`UPDATE links SET original_url = ?, title = ?, tags = ?, updated_at = ? WHERE id = ?`)

	tagsJSON, err := json.Marshal(link.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, link.OriginalURL, link.Title, string(tagsJSON), r.timeArg(link.UpdatedAt), link.ID)
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := r.rebind(`UPDATE links SET deleted_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, r.timeArg(time.Now()), id)
	return err
}

func (r *Repository) linkFilters(filters map[string]interface{}) (string, []interface{}) {
	where := ""
	args := []interface{}{}

	if search, ok := filters["search"].(string); ok && search != "" {
		where += " AND (title LIKE ? OR original_url LIKE ?)"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	if tag, ok := filters["tag"].(string); ok && tag != "" {
		where += " AND " + r.tagFilter()
		args = append(args, tag)
	}
	if domainFilter, ok := filters["domain"].(string); ok && domainFilter != "" {
		where += " AND original_url LIKE ?"
		args = append(args, "%"+domainFilter+"%")
	}
	return where, args
}

func (r *Repository) List(ctx context.Context, limit, offset int, filters map[string]interface{}) ([]domain.Link, error) {
	where, args := r.linkFilters(filters)
	query := `SELECT ` + linkColumns + ` FROM links WHERE deleted_at IS NULL` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []linkRow
	if err := r.db.SelectContext(ctx, &rows, r.rebind(query), args...); err != nil {
		return nil, err
	}
	return toLinks(rows), nil
}

func (r *Repository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	where, args := r.linkFilters(filters)
	query := `SELECT COUNT(*) FROM links WHERE deleted_at IS NULL` + where

	var count int64
	err := r.db.GetContext(ctx, &count, r.rebind(query), args...)
	return count, err
}

func (r *Repository) Dump(ctx context.Context) ([]domain.Link, error) {
	var rows []linkRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+linkColumns+` FROM links ORDER BY id`); err != nil {
		return nil, err
	}
	return toLinks(rows), nil
}

func (r *Repository) GetDashboardStats(ctx context.Context, limit int, filters map[string]interface{}) ([]domain.Link, int64, error) {
	// Summing the denormalized clicks column avoids scanning visits.
	var totalSystemClicks int64
	err := r.db.GetContext(ctx, &totalSystemClicks, `SELECT COALESCE(SUM(clicks), 0) FROM links WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, 0, err
	}

	where, args := r.linkFilters(filters)
	query := `SELECT ` + linkColumns + ` FROM links WHERE deleted_at IS NULL` + where + ` ORDER BY clicks DESC LIMIT ?`
	args = append(args, limit)

	var rows []linkRow
	if err := r.db.SelectContext(ctx, &rows, r.rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return toLinks(rows), totalSystemClicks, nil
}

// Ensure interface compliance
var (
	_ ports.LinkRepository   = (*Repository)(nil)
	_ ports.VisitRepository  = (*Repository)(nil)
	_ ports.APIKeyRepository = (*Repository)(nil)
)
