package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// WatchQueueStore implements storage.WatchQueueStore using PostgreSQL.
type WatchQueueStore struct {
	pool *Pool
}

// NewWatchQueueStore creates a new WatchQueueStore.
func NewWatchQueueStore(pool *Pool) *WatchQueueStore {
	return &WatchQueueStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchQueueStore = (*WatchQueueStore)(nil)

// Touch records activity. New entries get last_enriched_at = epoch so they are due at once.
func (s *WatchQueueStore) Touch(ctx context.Context, tokenAddress string, at time.Time) error {
	if tokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO watch_queue (token_address, last_enriched_at, last_active_at, created_at)
		VALUES ($1, to_timestamp(0), $2, $2)
		ON CONFLICT (token_address) DO UPDATE
		SET last_active_at = GREATEST(watch_queue.last_active_at, EXCLUDED.last_active_at)
	`

	if _, err := s.pool.Exec(ctx, query, tokenAddress, at.UTC()); err != nil {
		return fmt.Errorf("touch watch entry: %w", err)
	}
	return nil
}

// Due returns due entries, least recently enriched first.
func (s *WatchQueueStore) Due(ctx context.Context, now time.Time, cooldown, activityWindow time.Duration, limit int) ([]*domain.WatchEntry, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT token_address, last_enriched_at, last_active_at, created_at
		FROM watch_queue
		WHERE last_enriched_at < $1 AND last_active_at > $2
		ORDER BY last_enriched_at ASC, token_address ASC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, now.Add(-cooldown).UTC(), now.Add(-activityWindow).UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query due watch entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WatchEntry
	for rows.Next() {
		e, err := scanWatchEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch entries: %w", err)
	}
	return entries, nil
}

// Renew advances last_enriched_at, never moving it backwards.
func (s *WatchQueueStore) Renew(ctx context.Context, tokenAddress string, at time.Time) error {
	query := `
		UPDATE watch_queue
		SET last_enriched_at = GREATEST(last_enriched_at, $2)
		WHERE token_address = $1
	`

	tag, err := s.pool.Exec(ctx, query, tokenAddress, at.UTC())
	if err != nil {
		return fmt.Errorf("renew watch entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Get retrieves an entry. Returns ErrNotFound if not exists.
func (s *WatchQueueStore) Get(ctx context.Context, tokenAddress string) (*domain.WatchEntry, error) {
	query := `
		SELECT token_address, last_enriched_at, last_active_at, created_at
		FROM watch_queue
		WHERE token_address = $1
	`

	e, err := scanWatchEntry(s.pool.QueryRow(ctx, query, tokenAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get watch entry: %w", err)
	}
	return e, nil
}

func scanWatchEntry(row pgx.Row) (*domain.WatchEntry, error) {
	var e domain.WatchEntry
	if err := row.Scan(&e.TokenAddress, &e.LastEnrichedAt, &e.LastActiveAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.LastEnrichedAt = e.LastEnrichedAt.UTC()
	e.LastActiveAt = e.LastActiveAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
