package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
)

type apiKeyRow struct {
	ID        int64          `db:"id"`
	Key       string         `db:"api_key"`
	Name      string         `db:"name"`
	Enabled   bool           `db:"enabled"`
	Roles     sql.NullString `db:"roles"`
	ExpiresAt sql.NullTime   `db:"expires_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *Repository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	roles, err := json.Marshal(key.Roles)
	if err != nil {
		return err
	}

	var expiresAt interface{}
	if key.ExpiresAt != nil {
		expiresAt = r.timeArg(*key.ExpiresAt)
	}

	query := r.rebind(`INSERT INTO api_keys (api_key, name, enabled, roles, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowxContext(ctx, query,
		key.Key, key.Name, key.Enabled, string(roles), expiresAt, r.timeArg(key.CreatedAt),
	).Scan(&key.ID)
}

func (r *Repository) FindAPIKey(ctx context.Context, key string) (*domain.APIKey, error) {
	query := r.rebind(`SELECT id, api_key, name, enabled, roles, expires_at, created_at FROM api_keys WHERE api_key = ?`)

	var row apiKeyRow
	err := r.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	apiKey := &domain.APIKey{
		ID:        row.ID,
		Key:       row.Key,
		Name:      row.Name,
		Enabled:   row.Enabled,
		CreatedAt: row.CreatedAt,
	}
	if row.ExpiresAt.Valid {
		apiKey.ExpiresAt = &row.ExpiresAt.Time
	}
	if row.Roles.Valid {
		_ = json.Unmarshal([]byte(row.Roles.String), &apiKey.Roles)
	}
	return apiKey, nil
}
