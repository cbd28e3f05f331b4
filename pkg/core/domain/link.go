package domain

import "time"

// Link represents a shortened URL
type Link struct {
	ID          int64      `json:"id" db:"id"`
	OriginalURL string     `json:"original_url" db:"original_url"`
	ShortCode   string     `json:"short_code" db:"short_code"`
	Title       string     `json:"title" db:"title"`
	Tags        []string   `json:"tags" db:"-"` // Stored as JSON text
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	Clicks      int64      `json:"clicks,omitempty" db:"clicks"`
}
