package postgres

import (
	"context"
	"fmt"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// BlockchainVolumeStore implements storage.BlockchainVolumeStore using PostgreSQL.
type BlockchainVolumeStore struct {
	pool *Pool
}

// NewBlockchainVolumeStore creates a new BlockchainVolumeStore.
func NewBlockchainVolumeStore(pool *Pool) *BlockchainVolumeStore {
	return &BlockchainVolumeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BlockchainVolumeStore = (*BlockchainVolumeStore)(nil)

// Upsert writes a sample keyed by (day, chain).
func (s *BlockchainVolumeStore) Upsert(ctx context.Context, v *domain.BlockchainVolumeSample) error {
	if v == nil || v.Chain == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO blockchain_volume_sample (
			day, chain, total24h, total48h_to24h, total7d, total14d_to7d, total30d, total60d_to30d,
			total1y, total7days_ago, total30days_ago, change1d, change7d, change1m,
			change7d_over7d, change30d_over30d, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		ON CONFLICT (day, chain) DO UPDATE SET
			total24h = EXCLUDED.total24h,
			total48h_to24h = EXCLUDED.total48h_to24h,
			total7d = EXCLUDED.total7d,
			total14d_to7d = EXCLUDED.total14d_to7d,
			total30d = EXCLUDED.total30d,
			total60d_to30d = EXCLUDED.total60d_to30d,
			total1y = EXCLUDED.total1y,
			total7days_ago = EXCLUDED.total7days_ago,
			total30days_ago = EXCLUDED.total30days_ago,
			change1d = EXCLUDED.change1d,
			change7d = EXCLUDED.change7d,
			change1m = EXCLUDED.change1m,
			change7d_over7d = EXCLUDED.change7d_over7d,
			change30d_over30d = EXCLUDED.change30d_over30d,
			recorded_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		domain.StartOfDay(v.Day),
		v.Chain,
		v.Total24h,
		v.Total48hTo24h,
		v.Total7d,
		v.Total14dTo7d,
		v.Total30d,
		v.Total60dTo30d,
		v.Total1y,
		v.Total7DaysAgo,
		v.Total30DaysAgo,
		v.Change1d,
		v.Change7d,
		v.Change1m,
		v.Change7dOver7d,
		v.Change30dOver30d,
	)
	if err != nil {
		return fmt.Errorf("upsert blockchain volume: %w", err)
	}
	return nil
}

// LatestAtOrBefore retrieves the newest sample of chain with day <= day.
func (s *BlockchainVolumeStore) LatestAtOrBefore(ctx context.Context, chain string, day time.Time) (*domain.BlockchainVolumeSample, error) {
	query := `
		SELECT day, chain, total24h, total48h_to24h, total7d, total14d_to7d, total30d, total60d_to30d,
			total1y, total7days_ago, total30days_ago, change1d, change7d, change1m,
			change7d_over7d, change30d_over30d, recorded_at
		FROM blockchain_volume_sample
		WHERE chain = $1 AND day <= $2
		ORDER BY day DESC
		LIMIT 1
	`

	var v domain.BlockchainVolumeSample
	err := s.pool.QueryRow(ctx, query, chain, domain.StartOfDay(day)).Scan(
		&v.Day,
		&v.Chain,
		&v.Total24h,
		&v.Total48hTo24h,
		&v.Total7d,
		&v.Total14dTo7d,
		&v.Total30d,
		&v.Total60dTo30d,
		&v.Total1y,
		&v.Total7DaysAgo,
		&v.Total30DaysAgo,
		&v.Change1d,
		&v.Change7d,
		&v.Change1m,
		&v.Change7dOver7d,
		&v.Change30dOver30d,
		&v.RecordedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest blockchain volume: %w", err)
	}
	v.Day = v.Day.UTC()
	v.RecordedAt = v.RecordedAt.UTC()
	return &v, nil
}
