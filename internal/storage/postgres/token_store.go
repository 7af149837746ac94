package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
// Shared nullable columns are merged with COALESCE so a facet that lacks a value keeps the stored one.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// UpsertOverview writes overview columns.
func (s *TokenStore) UpsertOverview(ctx context.Context, o *domain.TokenOverview) error {
	if o == nil || o.Address == "" {
		return storage.ErrInvalidInput
	}

	socials, err := encodeSocials(o.Socials)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO token_projection (
			address, name, symbol, logo_uri, decimals, total_supply, price, history24h_price,
			price_change24h_percent, website_url, socials, market_cap, liquidity, holders,
			volume24h_usd, volume24h_change_percent, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14, $15, $16, now())
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			logo_uri = EXCLUDED.logo_uri,
			decimals = EXCLUDED.decimals,
			total_supply = EXCLUDED.total_supply,
			price = COALESCE(EXCLUDED.price, token_projection.price),
			history24h_price = EXCLUDED.history24h_price,
			price_change24h_percent = EXCLUDED.price_change24h_percent,
			website_url = EXCLUDED.website_url,
			socials = EXCLUDED.socials,
			market_cap = COALESCE(EXCLUDED.market_cap, token_projection.market_cap),
			liquidity = COALESCE(EXCLUDED.liquidity, token_projection.liquidity),
			holders = COALESCE(EXCLUDED.holders, token_projection.holders),
			volume24h_usd = COALESCE(EXCLUDED.volume24h_usd, token_projection.volume24h_usd),
			volume24h_change_percent = COALESCE(EXCLUDED.volume24h_change_percent, token_projection.volume24h_change_percent),
			updated_at = now()
	`

	_, err = s.pool.Exec(ctx, query,
		o.Address,
		o.Name,
		o.Symbol,
		o.LogoURI,
		o.Decimals,
		o.TotalSupply,
		o.Price,
		o.History24hPrice,
		o.PriceChange24hPercent,
		o.WebsiteURL,
		socials,
		o.MarketCap,
		o.Liquidity,
		o.Holders,
		o.Volume24hUSD,
		o.Volume24hChangePercent,
	)
	if err != nil {
		return fmt.Errorf("upsert token overview: %w", err)
	}
	return nil
}

// UpsertMarket writes market columns. Nil fields keep the stored value.
func (s *TokenStore) UpsertMarket(ctx context.Context, m *domain.TokenMarket) error {
	if m == nil || m.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_projection (
			address, price, liquidity, market_cap, fdv, circulating_supply, holders, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (address) DO UPDATE SET
			price = COALESCE(EXCLUDED.price, token_projection.price),
			liquidity = COALESCE(EXCLUDED.liquidity, token_projection.liquidity),
			market_cap = COALESCE(EXCLUDED.market_cap, token_projection.market_cap),
			fdv = COALESCE(EXCLUDED.fdv, token_projection.fdv),
			circulating_supply = COALESCE(EXCLUDED.circulating_supply, token_projection.circulating_supply),
			holders = COALESCE(EXCLUDED.holders, token_projection.holders),
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		m.Address, m.Price, m.Liquidity, m.MarketCap, m.FDV, m.CirculatingSupply, m.Holders,
	)
	if err != nil {
		return fmt.Errorf("upsert token market: %w", err)
	}
	return nil
}

// UpsertTrade writes trade columns. Nil fields keep the stored value.
func (s *TokenStore) UpsertTrade(ctx context.Context, t *domain.TokenTrade) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_projection (
			address, volume24h_usd, volume24h_change_percent, trades24h, buys24h, sells24h,
			unique_wallets24h, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (address) DO UPDATE SET
			volume24h_usd = COALESCE(EXCLUDED.volume24h_usd, token_projection.volume24h_usd),
			volume24h_change_percent = COALESCE(EXCLUDED.volume24h_change_percent, token_projection.volume24h_change_percent),
			trades24h = COALESCE(EXCLUDED.trades24h, token_projection.trades24h),
			buys24h = COALESCE(EXCLUDED.buys24h, token_projection.buys24h),
			sells24h = COALESCE(EXCLUDED.sells24h, token_projection.sells24h),
			unique_wallets24h = COALESCE(EXCLUDED.unique_wallets24h, token_projection.unique_wallets24h),
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		t.Address, t.Volume24hUSD, t.Volume24hChangePercent, t.Trades24h, t.Buys24h, t.Sells24h, t.UniqueWallets24h,
	)
	if err != nil {
		return fmt.Errorf("upsert token trade: %w", err)
	}
	return nil
}

// UpsertMeta writes identity columns for a batch of tokens.
func (s *TokenStore) UpsertMeta(ctx context.Context, metas []*domain.TokenMeta) error {
	if len(metas) == 0 {
		return nil
	}
	for _, m := range metas {
		if m == nil || m.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO token_projection (address, name, symbol, logo_uri, decimals, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			logo_uri = COALESCE(EXCLUDED.logo_uri, token_projection.logo_uri),
			decimals = EXCLUDED.decimals,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, m := range metas {
		batch.Queue(query, m.Address, m.Name, m.Symbol, m.LogoURI, m.Decimals)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert token meta: %w", err)
	}
	return nil
}

// GetByAddress retrieves a projection. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(ctx context.Context, address string) (*domain.TokenProjection, error) {
	query := `
		SELECT address, name, symbol, logo_uri, decimals, total_supply, price, history24h_price,
			price_change24h_percent, website_url, socials, market_cap, liquidity, holders, fdv,
			circulating_supply, volume24h_usd, volume24h_change_percent, trades24h, buys24h,
			sells24h, unique_wallets24h, updated_at
		FROM token_projection
		WHERE address = $1
	`

	p, err := scanTokenProjection(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token projection: %w", err)
	}
	return p, nil
}

// ExistingAddresses returns the subset of addresses that have a projection.
func (s *TokenStore) ExistingAddresses(ctx context.Context, addresses []string) ([]string, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT address FROM token_projection WHERE address = ANY($1)`, addresses)
	if err != nil {
		return nil, fmt.Errorf("query existing tokens: %w", err)
	}

	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect existing tokens: %w", err)
	}
	return existing, nil
}

func scanTokenProjection(row pgx.Row) (*domain.TokenProjection, error) {
	var p domain.TokenProjection
	var socials []byte

	err := row.Scan(
		&p.Address,
		&p.Name,
		&p.Symbol,
		&p.LogoURI,
		&p.Decimals,
		&p.TotalSupply,
		&p.Price,
		&p.History24hPrice,
		&p.PriceChange24hPercent,
		&p.WebsiteURL,
		&socials,
		&p.MarketCap,
		&p.Liquidity,
		&p.Holders,
		&p.FDV,
		&p.CirculatingSupply,
		&p.Volume24hUSD,
		&p.Volume24hChangePercent,
		&p.Trades24h,
		&p.Buys24h,
		&p.Sells24h,
		&p.UniqueWallets24h,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	links, err := decodeSocials(socials)
	if err != nil {
		return nil, err
	}
	p.Socials = links
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func encodeSocials(links domain.SocialLinks) (string, error) {
	raw := make(map[string]*string, len(links))
	for k, v := range links {
		raw[string(k)] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode socials: %w", err)
	}
	return string(data), nil
}

func decodeSocials(data []byte) (domain.SocialLinks, error) {
	if len(data) == 0 {
		return domain.SocialLinks{}, nil
	}
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode socials: %w", err)
	}
	return domain.NewSocialLinks(raw), nil
}
