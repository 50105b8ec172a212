package database

import (
	"database/sql"
	"time"
)

// Generation modes: what kind of request produced the image.
const (
	ModeText  = "text"  // prompt only
	ModeImage = "image" // prompt conditioned on a reference image
)

// Generation statuses recorded in the audit log.
const (
	StatusOK               = "ok"
	StatusGenerationFailed = "generation_failed"
	StatusDeliveryFailed   = "delivery_failed"
)

// Generation is one audit record of an image-generation attempt: who asked,
// what they asked for, and how the attempt ended.
type Generation struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID     int64          `db:"chat_id"`
	UserID     int64          `db:"user_id"`
	Prompt     string         `db:"prompt"`
	Mode       string         `db:"mode"`
	Status     string         `db:"status"`
	Error      sql.NullString `db:"error"`
	DurationMS int64          `db:"duration_ms"`
}

// StatusCount aggregates generations by status over a reporting window.
type StatusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}
