package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"alpha-move/internal/domain"
	"alpha-move/internal/observability"
	"alpha-move/internal/solana"
	"alpha-move/internal/storage"
)

// Backfiller fetches and stores the overview of a token the projection has never seen.
type Backfiller interface {
	BackfillOverview(ctx context.Context, tokenAddress string) error
}

// Publisher receives every persisted mover transaction.
type Publisher interface {
	Publish(tx *domain.MoverTransaction)
}

// Options configures an Ingester. Backfiller and Publisher are optional.
type Options struct {
	Registry     storage.MoverRegistry
	Transactions storage.MoverTransactionStore
	Tokens       storage.TokenStore
	Backfiller   Backfiller
	Publisher    Publisher
	Logger       *zerolog.Logger
}

// Ingester turns webhook batches into mover transactions.
type Ingester struct {
	registry     storage.MoverRegistry
	transactions storage.MoverTransactionStore
	tokens       storage.TokenStore
	backfiller   Backfiller
	publisher    Publisher
	logger       zerolog.Logger
}

// NewIngester creates an Ingester.
func NewIngester(opts Options) *Ingester {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Ingester{
		registry:     opts.Registry,
		transactions: opts.Transactions,
		tokens:       opts.Tokens,
		backfiller:   opts.Backfiller,
		publisher:    opts.Publisher,
		logger:       logger.With().Str("component", "webhook").Logger(),
	}
}

// Result summarises one Ingest call.
type Result struct {
	Transactions   int
	Wallets        int
	Tracked        int
	Classified     int
	Persisted      int
	PersistErrors  int
	Backfilled     int
	BackfillErrors int
}

// ExtractWallets returns the distinct non-empty source and destination owners
// of every token and native transfer in txs, in first-seen order.
func ExtractWallets(txs []EnhancedTransaction) []string {
	seen := make(map[string]struct{})
	var wallets []string
	add := func(w string) {
		if w == "" {
			return
		}
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		wallets = append(wallets, w)
	}
	for _, tx := range txs {
		for _, t := range tx.TokenTransfers {
			add(t.FromUserAccount)
			add(t.ToUserAccount)
		}
		for _, n := range tx.NativeTransfers {
			add(n.FromUserAccount)
			add(n.ToUserAccount)
		}
	}
	return wallets
}

// Classify decides the direction of t relative to the tracked set.
// A tracked destination wins over a tracked source, so a transfer between two
// tracked wallets is a buy. ok is false when neither side is tracked.
func Classify(t TokenTransfer, tracked map[string]struct{}) (wallet string, action domain.Action, ok bool) {
	if _, hit := tracked[t.ToUserAccount]; hit && t.ToUserAccount != "" {
		return t.ToUserAccount, domain.ActionBuy, true
	}
	if _, hit := tracked[t.FromUserAccount]; hit && t.FromUserAccount != "" {
		return t.FromUserAccount, domain.ActionSell, true
	}
	return "", "", false
}

// Ingest classifies and stores the tracked transfers of txs, then backfills unseen tokens.
// Per-row failures are logged and counted; only a failed registry lookup is returned.
func (in *Ingester) Ingest(ctx context.Context, txs []EnhancedTransaction) (Result, error) {
	observability.RecordWebhookBatch()
	res := Result{Transactions: len(txs)}

	wallets := ExtractWallets(txs)
	res.Wallets = len(wallets)
	if len(wallets) == 0 {
		return res, nil
	}

	tracked, err := in.registry.TrackedAmong(ctx, wallets)
	if err != nil {
		return res, fmt.Errorf("load tracked wallets: %w", err)
	}
	res.Tracked = len(tracked)
	if len(tracked) == 0 {
		return res, nil
	}

	mints := make(map[string]struct{})
	for _, tx := range txs {
		for _, t := range tx.TokenTransfers {
			wallet, action, ok := Classify(t, tracked)
			if !ok {
				continue
			}
			res.Classified++
			observability.RecordMoverTransfer(string(action))
			if t.Mint != "" && t.Mint != solana.WrappedSOLMint {
				mints[t.Mint] = struct{}{}
			}

			row := &domain.MoverTransaction{
				Signature:     tx.Signature,
				TokenAddress:  t.Mint,
				WalletAddress: wallet,
				Action:        action,
				Amount:        parseAmount(t.TokenAmount),
				BlockTime:     tx.Timestamp,
				Slot:          tx.Slot,
			}
			if err := in.transactions.Upsert(ctx, row); err != nil {
				res.PersistErrors++
				observability.RecordWebhookPersistError()
				in.logger.Error().Err(err).
					Str("signature", tx.Signature).
					Str("mint", t.Mint).
					Msg("failed to store mover transaction")
				continue
			}
			res.Persisted++
			if in.publisher != nil {
				in.publisher.Publish(row)
			}
		}
	}

	in.backfill(ctx, mints, &res)

	in.logger.Info().
		Int("transactions", res.Transactions).
		Int("classified", res.Classified).
		Int("persisted", res.Persisted).
		Int("backfilled", res.Backfilled).
		Msg("webhook batch processed")
	return res, nil
}

func (in *Ingester) backfill(ctx context.Context, mints map[string]struct{}, res *Result) {
	if in.backfiller == nil || len(mints) == 0 {
		return
	}

	addresses := make([]string, 0, len(mints))
	for m := range mints {
		addresses = append(addresses, m)
	}
	sort.Strings(addresses)

	existing, err := in.tokens.ExistingAddresses(ctx, addresses)
	if err != nil {
		in.logger.Error().Err(err).Msg("failed to check known tokens")
		return
	}
	known := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		known[a] = struct{}{}
	}

	for _, addr := range addresses {
		if _, ok := known[addr]; ok {
			continue
		}
		if err := in.backfiller.BackfillOverview(ctx, addr); err != nil {
			res.BackfillErrors++
			observability.RecordBackfill("failed")
			in.logger.Warn().Err(err).Str("token", addr).Msg("token backfill failed")
			continue
		}
		res.Backfilled++
		observability.RecordBackfill("ok")
	}
}

func parseAmount(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}
