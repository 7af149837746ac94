package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// DailyVolumeStore implements storage.DailyVolumeStore using PostgreSQL.
type DailyVolumeStore struct {
	pool *Pool
}

// NewDailyVolumeStore creates a new DailyVolumeStore.
func NewDailyVolumeStore(pool *Pool) *DailyVolumeStore {
	return &DailyVolumeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailyVolumeStore = (*DailyVolumeStore)(nil)

// Upsert writes volumes keyed by (token_address, day).
func (s *DailyVolumeStore) Upsert(ctx context.Context, volumes []*domain.DailyVolume) error {
	if len(volumes) == 0 {
		return nil
	}

	query := `
		INSERT INTO daily_volume (token_address, day, volume24h_usd, name, symbol, logo_uri, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (token_address, day) DO UPDATE SET
			volume24h_usd = EXCLUDED.volume24h_usd,
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			logo_uri = EXCLUDED.logo_uri,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, v := range volumes {
		if v == nil || v.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(query, v.TokenAddress, domain.StartOfDay(v.Day), v.Volume24hUSD, v.Name, v.Symbol, v.LogoURI)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert daily volumes: %w", err)
	}
	return nil
}

// TopByDay returns the highest volumes of day, highest first.
func (s *DailyVolumeStore) TopByDay(ctx context.Context, day time.Time, limit int) ([]*domain.DailyVolume, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT token_address, day, volume24h_usd, name, symbol, logo_uri, updated_at
		FROM daily_volume
		WHERE day = $1
		ORDER BY volume24h_usd DESC, token_address ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, domain.StartOfDay(day), limit)
	if err != nil {
		return nil, fmt.Errorf("query daily volumes: %w", err)
	}
	defer rows.Close()

	var volumes []*domain.DailyVolume
	for rows.Next() {
		var v domain.DailyVolume
		if err := rows.Scan(&v.TokenAddress, &v.Day, &v.Volume24hUSD, &v.Name, &v.Symbol, &v.LogoURI, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily volume: %w", err)
		}
		v.Day = v.Day.UTC()
		v.UpdatedAt = v.UpdatedAt.UTC()
		volumes = append(volumes, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily volumes: %w", err)
	}
	return volumes, nil
}
