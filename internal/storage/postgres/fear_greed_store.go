package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// FearGreedStore implements storage.FearGreedStore using PostgreSQL.
type FearGreedStore struct {
	pool *Pool
}

// NewFearGreedStore creates a new FearGreedStore.
func NewFearGreedStore(pool *Pool) *FearGreedStore {
	return &FearGreedStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FearGreedStore = (*FearGreedStore)(nil)

// Upsert writes samples keyed by (day, chain).
func (s *FearGreedStore) Upsert(ctx context.Context, samples []*domain.FearGreedSample) error {
	if len(samples) == 0 {
		return nil
	}

	query := `
		INSERT INTO fear_greed_sample (day, chain, value, classification, recorded_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (day, chain) DO UPDATE SET
			value = EXCLUDED.value,
			classification = EXCLUDED.classification,
			recorded_at = now()
	`

	batch := &pgx.Batch{}
	for _, sm := range samples {
		if sm == nil || sm.Chain == "" || sm.Value < 0 || sm.Value > 100 {
			return storage.ErrInvalidInput
		}
		batch.Queue(query, domain.StartOfDay(sm.Day), sm.Chain, sm.Value, sm.Classification)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert fear greed samples: %w", err)
	}
	return nil
}

// GetByDay retrieves the sample of chain for day. Returns ErrNotFound if not exists.
func (s *FearGreedStore) GetByDay(ctx context.Context, chain string, day time.Time) (*domain.FearGreedSample, error) {
	query := `
		SELECT day, chain, value, classification, recorded_at
		FROM fear_greed_sample
		WHERE chain = $1 AND day = $2
	`

	sm, err := scanFearGreedSample(s.pool.QueryRow(ctx, query, chain, domain.StartOfDay(day)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get fear greed sample: %w", err)
	}
	return sm, nil
}

// LatestAtOrBefore retrieves the newest sample of chain with day <= day.
func (s *FearGreedStore) LatestAtOrBefore(ctx context.Context, chain string, day time.Time) (*domain.FearGreedSample, error) {
	query := `
		SELECT day, chain, value, classification, recorded_at
		FROM fear_greed_sample
		WHERE chain = $1 AND day <= $2
		ORDER BY day DESC
		LIMIT 1
	`

	sm, err := scanFearGreedSample(s.pool.QueryRow(ctx, query, chain, domain.StartOfDay(day)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest fear greed sample: %w", err)
	}
	return sm, nil
}

// History returns up to limit samples of chain, newest first.
func (s *FearGreedStore) History(ctx context.Context, chain string, limit int) ([]*domain.FearGreedSample, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT day, chain, value, classification, recorded_at
		FROM fear_greed_sample
		WHERE chain = $1
		ORDER BY day DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, chain, limit)
	if err != nil {
		return nil, fmt.Errorf("query fear greed history: %w", err)
	}
	defer rows.Close()

	var samples []*domain.FearGreedSample
	for rows.Next() {
		sm, err := scanFearGreedSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fear greed sample: %w", err)
		}
		samples = append(samples, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fear greed history: %w", err)
	}
	return samples, nil
}

func scanFearGreedSample(row pgx.Row) (*domain.FearGreedSample, error) {
	var sm domain.FearGreedSample
	if err := row.Scan(&sm.Day, &sm.Chain, &sm.Value, &sm.Classification, &sm.RecordedAt); err != nil {
		return nil, err
	}
	sm.Day = sm.Day.UTC()
	sm.RecordedAt = sm.RecordedAt.UTC()
	return &sm, nil
}
