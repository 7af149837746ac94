package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// MoverTransactionStore implements storage.MoverTransactionStore using PostgreSQL.
// Amounts travel as NUMERIC text to keep full precision.
type MoverTransactionStore struct {
	pool *Pool
}

// NewMoverTransactionStore creates a new MoverTransactionStore.
func NewMoverTransactionStore(pool *Pool) *MoverTransactionStore {
	return &MoverTransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MoverTransactionStore = (*MoverTransactionStore)(nil)

// Upsert writes a transaction keyed by signature, overwriting on redelivery.
func (s *MoverTransactionStore) Upsert(ctx context.Context, tx *domain.MoverTransaction) error {
	if tx == nil || tx.Signature == "" || !tx.Action.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mover_transaction (
			signature, token_address, wallet_address, action, amount, block_time, slot, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, now())
		ON CONFLICT (signature) DO UPDATE SET
			token_address = EXCLUDED.token_address,
			wallet_address = EXCLUDED.wallet_address,
			action = EXCLUDED.action,
			amount = EXCLUDED.amount,
			block_time = EXCLUDED.block_time,
			slot = EXCLUDED.slot,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		tx.Signature,
		tx.TokenAddress,
		tx.WalletAddress,
		string(tx.Action),
		tx.Amount.String(),
		tx.BlockTime,
		tx.Slot,
	)
	if err != nil {
		return fmt.Errorf("upsert mover transaction: %w", err)
	}
	return nil
}

// Get retrieves a transaction. Returns ErrNotFound if not exists.
func (s *MoverTransactionStore) Get(ctx context.Context, signature string) (*domain.MoverTransaction, error) {
	query := `
		SELECT signature, token_address, wallet_address, action, amount::text, block_time, slot, updated_at
		FROM mover_transaction
		WHERE signature = $1
	`

	tx, err := scanMoverTransaction(s.pool.QueryRow(ctx, query, signature))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get mover transaction: %w", err)
	}
	return tx, nil
}

// List returns joined views of transactions on watched tokens, slot DESC.
func (s *MoverTransactionStore) List(ctx context.Context, limit, offset int) ([]*domain.MoverTransactionView, error) {
	if limit <= 0 || offset < 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT
			t.signature, t.token_address, t.wallet_address, t.action, t.amount::text,
			t.block_time, t.slot, t.updated_at,
			COALESCE(w.role, ''), COALESCE(w.name, ''),
			p.name, p.symbol, p.logo_uri, p.total_supply, p.decimals, p.market_cap,
			p.history24h_price, p.price_change24h_percent, p.holders, p.liquidity,
			p.volume24h_usd, p.volume24h_change_percent,
			m.token_address, m.mun_score, m.risk_score, m.top_fresh_wallet_holders,
			m.top_smart_wallet_holders, m.smart_followers, m.created_at, m.updated_at
		FROM mover_transaction t
		LEFT JOIN mover_wallet w ON w.wallet_address = t.wallet_address
		LEFT JOIN token_projection p ON p.address = t.token_address
		LEFT JOIN alpha_metric m ON m.token_address = t.token_address
		WHERE t.token_address IN (SELECT token_address FROM watch_queue)
		ORDER BY t.slot DESC, t.signature ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query mover transactions: %w", err)
	}
	defer rows.Close()

	views := make([]*domain.MoverTransactionView, 0, limit)
	for rows.Next() {
		v, err := scanMoverTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mover transaction: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mover transactions: %w", err)
	}
	return views, nil
}

// Count returns the number of transactions on watched tokens.
func (s *MoverTransactionStore) Count(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM mover_transaction
		WHERE token_address IN (SELECT token_address FROM watch_queue)
	`

	var n int64
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mover transactions: %w", err)
	}
	return n, nil
}

func scanMoverTransaction(row pgx.Row) (*domain.MoverTransaction, error) {
	var tx domain.MoverTransaction
	var action, amount string

	err := row.Scan(
		&tx.Signature,
		&tx.TokenAddress,
		&tx.WalletAddress,
		&action,
		&amount,
		&tx.BlockTime,
		&tx.Slot,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fillMoverTransaction(&tx, action, amount); err != nil {
		return nil, err
	}
	return &tx, nil
}

func scanMoverTransactionView(row pgx.Row) (*domain.MoverTransactionView, error) {
	var v domain.MoverTransactionView
	var action, amount string

	// alpha_metric columns are all NULL when no metric row exists
	var (
		metricToken          *string
		munScore, riskScore  *float64
		fresh, smart, follow *int64
		createdAt, updatedAt *time.Time
	)

	err := row.Scan(
		&v.Signature,
		&v.TokenAddress,
		&v.WalletAddress,
		&action,
		&amount,
		&v.BlockTime,
		&v.Slot,
		&v.UpdatedAt,
		&v.MoverRole,
		&v.MoverName,
		&v.TokenName,
		&v.TokenSymbol,
		&v.TokenLogo,
		&v.TotalSupply,
		&v.Decimals,
		&v.MarketCap,
		&v.History24hPrice,
		&v.PriceChange24hPercent,
		&v.Holders,
		&v.Liquidity,
		&v.Volume24hUSD,
		&v.Volume24hChange,
		&metricToken,
		&munScore,
		&riskScore,
		&fresh,
		&smart,
		&follow,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fillMoverTransaction(&v.MoverTransaction, action, amount); err != nil {
		return nil, err
	}

	if metricToken != nil {
		m := domain.AlphaMetric{
			TokenAddress: *metricToken,
			MunScore:     munScore,
			RiskScore:    riskScore,
		}
		if fresh != nil {
			m.TopFreshWalletHolders = *fresh
		}
		if smart != nil {
			m.TopSmartWalletHolders = *smart
		}
		if follow != nil {
			m.SmartFollowers = *follow
		}
		if createdAt != nil {
			m.CreatedAt = createdAt.UTC()
		}
		if updatedAt != nil {
			m.UpdatedAt = updatedAt.UTC()
		}
		floored := m.Floored()
		v.Metric = &floored
	}
	return &v, nil
}

func fillMoverTransaction(tx *domain.MoverTransaction, action, amount string) error {
	tx.Action = domain.Action(action)
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", amount, err)
	}
	tx.Amount = d
	tx.UpdatedAt = tx.UpdatedAt.UTC()
	return nil
}
