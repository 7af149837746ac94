package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpha-move/internal/domain"
	"alpha-move/internal/solana"
	"alpha-move/internal/storage/memory"
)

const (
	moverA    = "MoverAAAA"
	moverB    = "MoverBBBB"
	stranger1 = "Stranger1"
	stranger2 = "Stranger2"
)

type fakeBackfiller struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeBackfiller) BackfillOverview(_ context.Context, addr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, addr)
	return f.err
}

type fakePublisher struct {
	published []*domain.MoverTransaction
}

func (f *fakePublisher) Publish(tx *domain.MoverTransaction) {
	f.published = append(f.published, tx)
}

// failingTransactions rejects every write.
type failingTransactions struct {
	*memory.MoverTransactionStore
}

func (failingTransactions) Upsert(context.Context, *domain.MoverTransaction) error {
	return errors.New("db down")
}

type fixture struct {
	registry  *memory.MoverRegistry
	tokens    *memory.TokenStore
	txs       *memory.MoverTransactionStore
	backfill  *fakeBackfiller
	publisher *fakePublisher
	ingester  *Ingester
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registry:  memory.NewMoverRegistry(),
		tokens:    memory.NewTokenStore(),
		backfill:  &fakeBackfiller{},
		publisher: &fakePublisher{},
	}
	f.txs = memory.NewMoverTransactionStore(f.registry, f.tokens, nil, nil)
	require.NoError(t, f.registry.Upsert(context.Background(), []*domain.MoverWallet{
		{WalletAddress: moverA, Role: "kol"},
		{WalletAddress: moverB, Role: "fund"},
	}))
	f.ingester = NewIngester(Options{
		Registry:     f.registry,
		Transactions: f.txs,
		Tokens:       f.tokens,
		Backfiller:   f.backfill,
		Publisher:    f.publisher,
	})
	return f
}

func transfer(from, to, mint, amount string) TokenTransfer {
	return TokenTransfer{
		FromUserAccount: from,
		ToUserAccount:   to,
		Mint:            mint,
		TokenAmount:     json.Number(amount),
		TokenStandard:   "Fungible",
	}
}

func TestExtractWallets(t *testing.T) {
	txs := []EnhancedTransaction{
		{
			TokenTransfers:  []TokenTransfer{transfer(moverA, stranger1, "M1", "1")},
			NativeTransfers: []NativeTransfer{{FromUserAccount: stranger1, ToUserAccount: stranger2, Amount: 5000}},
		},
		{
			TokenTransfers: []TokenTransfer{transfer("", moverA, "M2", "1")},
		},
	}

	assert.Equal(t, []string{moverA, stranger1, stranger2}, ExtractWallets(txs))
	assert.Empty(t, ExtractWallets(nil))
}

func TestClassify(t *testing.T) {
	tracked := map[string]struct{}{moverA: {}, moverB: {}}

	tests := []struct {
		name     string
		transfer TokenTransfer
		wallet   string
		action   domain.Action
		ok       bool
	}{
		{"destination tracked", transfer(stranger1, moverA, "M", "1"), moverA, domain.ActionBuy, true},
		{"source tracked", transfer(moverA, stranger1, "M", "1"), moverA, domain.ActionSell, true},
		{"both tracked", transfer(moverA, moverB, "M", "1"), moverB, domain.ActionBuy, true},
		{"neither tracked", transfer(stranger1, stranger2, "M", "1"), "", "", false},
		{"empty sides", transfer("", "", "M", "1"), "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet, action, ok := Classify(tt.transfer, tracked)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wallet, wallet)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestIngest_PersistsTrackedTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingester.Ingest(ctx, []EnhancedTransaction{
		{
			Signature:      "sig-buy",
			Slot:           300,
			Timestamp:      1_772_000_000,
			TokenTransfers: []TokenTransfer{transfer(stranger1, moverA, "MintX", "1234.5678")},
		},
		{
			Signature:      "sig-sell",
			Slot:           301,
			Timestamp:      1_772_000_100,
			TokenTransfers: []TokenTransfer{transfer(moverB, stranger2, "MintX", "10")},
		},
		{
			Signature:      "sig-ignored",
			Slot:           302,
			TokenTransfers: []TokenTransfer{transfer(stranger1, stranger2, "MintY", "10")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Transactions)
	assert.Equal(t, 2, res.Tracked)
	assert.Equal(t, 2, res.Classified)
	assert.Equal(t, 2, res.Persisted)

	buy, err := f.txs.Get(ctx, "sig-buy")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBuy, buy.Action)
	assert.Equal(t, moverA, buy.WalletAddress)
	assert.Equal(t, "MintX", buy.TokenAddress)
	assert.Equal(t, "1234.5678", buy.Amount.String())
	assert.Equal(t, int64(300), buy.Slot)
	assert.Equal(t, int64(1_772_000_000), buy.BlockTime)

	sell, err := f.txs.Get(ctx, "sig-sell")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSell, sell.Action)
	assert.Equal(t, moverB, sell.WalletAddress)

	_, err = f.txs.Get(ctx, "sig-ignored")
	assert.Error(t, err)

	assert.Len(t, f.publisher.published, 2)
}

func TestIngest_RedeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batch := []EnhancedTransaction{
		{Signature: "s1", Slot: 1, TokenTransfers: []TokenTransfer{transfer(stranger1, moverA, "MintX", "1")}},
		{Signature: "s2", Slot: 2, TokenTransfers: []TokenTransfer{transfer(moverA, stranger1, "MintX", "2")}},
	}

	_, err := f.ingester.Ingest(ctx, batch)
	require.NoError(t, err)
	once, err := f.txs.Count(ctx)
	require.NoError(t, err)

	_, err = f.ingester.Ingest(ctx, batch)
	require.NoError(t, err)
	twice, err := f.txs.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), once)
	assert.Equal(t, once, twice)
}

func TestIngest_BothSidesTrackedIsBuy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ingester.Ingest(ctx, []EnhancedTransaction{
		{Signature: "self", Slot: 9, TokenTransfers: []TokenTransfer{transfer(moverA, moverB, "MintX", "3")}},
	})
	require.NoError(t, err)

	tx, err := f.txs.Get(ctx, "self")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBuy, tx.Action)
	assert.Equal(t, moverB, tx.WalletAddress)
}

func TestIngest_BackfillsOnlyUnknownNonSOLMints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tokens.UpsertMeta(ctx, []*domain.TokenMeta{{Address: "KnownMint", Name: "Known", Symbol: "KN"}}))

	_, err := f.ingester.Ingest(ctx, []EnhancedTransaction{
		{Signature: "a", TokenTransfers: []TokenTransfer{
			transfer(stranger1, moverA, solana.WrappedSOLMint, "1.5"),
			transfer(moverA, stranger1, "NewMint", "100"),
		}},
		{Signature: "b", TokenTransfers: []TokenTransfer{transfer(stranger1, moverB, "KnownMint", "7")}},
		{Signature: "c", TokenTransfers: []TokenTransfer{transfer(stranger1, moverB, "NewMint", "8")}},
		{Signature: "d", TokenTransfers: []TokenTransfer{transfer(stranger1, stranger2, "UntrackedMint", "9")}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NewMint"}, f.backfill.calls)
}

func TestIngest_BackfillFailureIsCounted(t *testing.T) {
	f := newFixture(t)
	f.backfill.err = errors.New("birdeye down")

	res, err := f.ingester.Ingest(context.Background(), []EnhancedTransaction{
		{Signature: "a", TokenTransfers: []TokenTransfer{transfer(stranger1, moverA, "NewMint", "1")}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 1, res.BackfillErrors)
	assert.Zero(t, res.Backfilled)
}

func TestIngest_NoTrackedWalletsWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingester.Ingest(ctx, []EnhancedTransaction{
		{Signature: "x", TokenTransfers: []TokenTransfer{transfer(stranger1, stranger2, "MintX", "1")}},
	})
	require.NoError(t, err)

	assert.Zero(t, res.Classified)
	n, err := f.txs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.backfill.calls)
}

func TestIngest_BackfillRunsWhenPersistFails(t *testing.T) {
	f := newFixture(t)
	f.ingester = NewIngester(Options{
		Registry:     f.registry,
		Transactions: failingTransactions{f.txs},
		Tokens:       f.tokens,
		Backfiller:   f.backfill,
		Publisher:    f.publisher,
	})

	res, err := f.ingester.Ingest(context.Background(), []EnhancedTransaction{
		{Signature: "a", TokenTransfers: []TokenTransfer{transfer(stranger1, moverA, "MintNew111", "1")}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.PersistErrors)
	assert.Zero(t, res.Persisted)
	assert.Empty(t, f.publisher.published)
	assert.Equal(t, []string{"MintNew111"}, f.backfill.calls)
	assert.Equal(t, 1, res.Backfilled)
}
