package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveGeneration inserts a new generation audit record.
	SaveGeneration(ctx context.Context, gen *Generation) error

	// CountByStatus aggregates generations recorded since the given time,
	// grouped by status.
	CountByStatus(ctx context.Context, since time.Time) ([]StatusCount, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveGeneration inserts a new generation audit record.
func (s *sqlxStore) SaveGeneration(ctx context.Context, gen *Generation) error {
	if gen == nil {
		return fmt.Errorf("cannot save nil generation")
	}
	if gen.ChatID == 0 {
		return fmt.Errorf("generation must have a non-zero chat_id")
	}
	if gen.Prompt == "" {
		return fmt.Errorf("generation must have a non-empty prompt")
	}
	if gen.Mode != ModeText && gen.Mode != ModeImage {
		return fmt.Errorf("unknown generation mode %q", gen.Mode)
	}
	switch gen.Status {
	case StatusOK, StatusGenerationFailed, StatusDeliveryFailed:
	default:
		return fmt.Errorf("unknown generation status %q", gen.Status)
	}

	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving generation",
			"chat_id", gen.ChatID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO generations (created_at, chat_id, user_id, prompt, mode, status, error, duration_ms)
        VALUES (:created_at, :chat_id, :user_id, :prompt, :mode, :status, :error, :duration_ms);
    `

	result, err := tx.NamedExecContext(ctx, query, gen)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving generation", "chat_id", gen.ChatID, "error", err)
		return fmt.Errorf("failed to save generation (chat %d): %w", gen.ChatID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		gen.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving generation",
			"chat_id", gen.ChatID, "error", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"chat_id", gen.ChatID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Generation saved successfully",
		"chat_id", gen.ChatID, "status", gen.Status, "generation_id", gen.ID)
	return nil
}

// CountByStatus aggregates generations recorded since the given time,
// grouped by status. Statuses with no rows are absent from the result.
func (s *sqlxStore) CountByStatus(ctx context.Context, since time.Time) ([]StatusCount, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var counts []StatusCount
	query := `
        SELECT status, COUNT(*) AS count
        FROM generations
        WHERE created_at >= ?
        GROUP BY status
        ORDER BY status;
    `

	s.logger.DebugContext(ctx, "Aggregating generations by status", "since", since)
	err := s.db.SelectContext(ctx, &counts, query, since)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while aggregating generations", "error", err)
		return nil, err
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Error aggregating generations by status", "error", err)
		return nil, fmt.Errorf("failed to aggregate generations by status: %w", err)
	}

	return counts, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
