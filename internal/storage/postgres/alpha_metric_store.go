package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// AlphaMetricStore implements storage.AlphaMetricStore using PostgreSQL.
type AlphaMetricStore struct {
	pool *Pool
}

// NewAlphaMetricStore creates a new AlphaMetricStore.
func NewAlphaMetricStore(pool *Pool) *AlphaMetricStore {
	return &AlphaMetricStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlphaMetricStore = (*AlphaMetricStore)(nil)

// Patch upserts the set columns of p in a single statement.
// Concurrent patches on disjoint columns never lose each other's writes.
func (s *AlphaMetricStore) Patch(ctx context.Context, tokenAddress string, p domain.AlphaMetricPatch) error {
	if tokenAddress == "" {
		return storage.ErrInvalidInput
	}
	if p.IsEmpty() {
		return nil
	}

	query := `
		INSERT INTO alpha_metric (
			token_address, mun_score, risk_score, top_fresh_wallet_holders,
			top_smart_wallet_holders, smart_followers, created_at, updated_at
		) VALUES ($1, $2::double precision, $3::double precision, COALESCE($4::bigint, 0), COALESCE($5::bigint, 0), COALESCE($6::bigint, 0), now(), now())
		ON CONFLICT (token_address) DO UPDATE SET
			mun_score = COALESCE($2, alpha_metric.mun_score),
			risk_score = COALESCE($3, alpha_metric.risk_score),
			top_fresh_wallet_holders = COALESCE($4, alpha_metric.top_fresh_wallet_holders),
			top_smart_wallet_holders = COALESCE($5, alpha_metric.top_smart_wallet_holders),
			smart_followers = COALESCE($6, alpha_metric.smart_followers),
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		tokenAddress,
		p.MunScore,
		p.RiskScore,
		p.TopFreshWalletHolders,
		p.TopSmartWalletHolders,
		p.SmartFollowers,
	)
	if err != nil {
		return fmt.Errorf("patch alpha metric: %w", err)
	}
	return nil
}

// Get retrieves a metric. Returns ErrNotFound if not exists.
func (s *AlphaMetricStore) Get(ctx context.Context, tokenAddress string) (*domain.AlphaMetric, error) {
	query := `
		SELECT token_address, mun_score, risk_score, top_fresh_wallet_holders,
			top_smart_wallet_holders, smart_followers, created_at, updated_at
		FROM alpha_metric
		WHERE token_address = $1
	`

	m, err := scanAlphaMetric(s.pool.QueryRow(ctx, query, tokenAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alpha metric: %w", err)
	}
	return m, nil
}

// GetByAddresses retrieves metrics for the given tokens, ordered by token address.
func (s *AlphaMetricStore) GetByAddresses(ctx context.Context, tokenAddresses []string) ([]*domain.AlphaMetric, error) {
	if len(tokenAddresses) == 0 {
		return nil, nil
	}

	query := `
		SELECT token_address, mun_score, risk_score, top_fresh_wallet_holders,
			top_smart_wallet_holders, smart_followers, created_at, updated_at
		FROM alpha_metric
		WHERE token_address = ANY($1)
		ORDER BY token_address ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddresses)
	if err != nil {
		return nil, fmt.Errorf("query alpha metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*domain.AlphaMetric
	for rows.Next() {
		m, err := scanAlphaMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alpha metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alpha metrics: %w", err)
	}
	return metrics, nil
}

func scanAlphaMetric(row pgx.Row) (*domain.AlphaMetric, error) {
	var m domain.AlphaMetric
	err := row.Scan(
		&m.TokenAddress,
		&m.MunScore,
		&m.RiskScore,
		&m.TopFreshWalletHolders,
		&m.TopSmartWalletHolders,
		&m.SmartFollowers,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}
