package clickhouse

import (
	"context"
	"fmt"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
// Duplicates collapse through ReplacingMergeTree; reads use FINAL.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds points in one batch.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (token_address, ts, price, volume24h_usd)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.TokenAddress, p.Timestamp.UTC(), p.Price, p.Volume24hUSD); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// DailyCloses returns the last price of each UTC day in [from, to), day ASC.
func (s *PriceHistoryStore) DailyCloses(ctx context.Context, tokenAddress string, from, to time.Time) ([]domain.DailyClose, error) {
	query := `
		SELECT toStartOfDay(ts, 'UTC') AS day, argMax(price, ts) AS close
		FROM price_history FINAL
		WHERE token_address = ? AND ts >= ? AND ts < ?
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query daily closes: %w", err)
	}
	defer rows.Close()

	var closes []domain.DailyClose
	for rows.Next() {
		var c domain.DailyClose
		if err := rows.Scan(&c.Day, &c.Price); err != nil {
			return nil, fmt.Errorf("scan daily close: %w", err)
		}
		c.Day = c.Day.UTC()
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily closes: %w", err)
	}
	return closes, nil
}
