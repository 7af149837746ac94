package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// MoverRegistry implements storage.MoverRegistry using PostgreSQL.
type MoverRegistry struct {
	pool *Pool
}

// NewMoverRegistry creates a new MoverRegistry.
func NewMoverRegistry(pool *Pool) *MoverRegistry {
	return &MoverRegistry{pool: pool}
}

// Compile-time interface check.
var _ storage.MoverRegistry = (*MoverRegistry)(nil)

// TrackedAmong returns the subset of wallets present in the registry.
func (r *MoverRegistry) TrackedAmong(ctx context.Context, wallets []string) (map[string]struct{}, error) {
	tracked := make(map[string]struct{})
	if len(wallets) == 0 {
		return tracked, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT wallet_address FROM mover_wallet WHERE wallet_address = ANY($1)`, wallets)
	if err != nil {
		return nil, fmt.Errorf("query tracked movers: %w", err)
	}

	addrs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect tracked movers: %w", err)
	}
	for _, a := range addrs {
		tracked[a] = struct{}{}
	}
	return tracked, nil
}

// CountTracked counts how many distinct wallets are present in the registry.
func (r *MoverRegistry) CountTracked(ctx context.Context, wallets []string) (int64, error) {
	if len(wallets) == 0 {
		return 0, nil
	}

	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mover_wallet WHERE wallet_address = ANY($1)`, wallets).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tracked movers: %w", err)
	}
	return n, nil
}

// Upsert adds or replaces registry entries.
func (r *MoverRegistry) Upsert(ctx context.Context, movers []*domain.MoverWallet) error {
	if len(movers) == 0 {
		return nil
	}

	query := `
		INSERT INTO mover_wallet (wallet_address, role, name, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (wallet_address) DO UPDATE SET
			role = EXCLUDED.role,
			name = EXCLUDED.name
	`

	batch := &pgx.Batch{}
	for _, m := range movers {
		if m == nil || m.WalletAddress == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(query, m.WalletAddress, m.Role, m.Name)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert movers: %w", err)
	}
	return nil
}

// Get retrieves a mover. Returns ErrNotFound if not exists.
func (r *MoverRegistry) Get(ctx context.Context, walletAddress string) (*domain.MoverWallet, error) {
	var m domain.MoverWallet
	err := r.pool.QueryRow(ctx,
		`SELECT wallet_address, role, name, created_at FROM mover_wallet WHERE wallet_address = $1`,
		walletAddress,
	).Scan(&m.WalletAddress, &m.Role, &m.Name, &m.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get mover: %w", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}
