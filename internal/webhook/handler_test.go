package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage/memory"
)

// samplePayload mirrors a real enhanced-transaction delivery.
const samplePayload = `[
  {
    "description": "",
    "fee": 5000,
    "feePayer": "Stranger1",
    "nativeTransfers": [
      {"amount": 2039280, "fromUserAccount": "Stranger1", "toUserAccount": "MoverAAAA"}
    ],
    "signature": "5wHu1qwD7q5ifaN5nwdcDqNFo53GJqa7nLp2BeeEpcHCusb4GzARz4GjgzsEHMkBMgCJMGa6GSQ1VG96Exv8kt2W",
    "slot": 171341028,
    "source": "RAYDIUM",
    "timestamp": 1673445241,
    "tokenTransfers": [
      {
        "fromTokenAccount": "2uySTNgvGT2kwqpfgLiSgeBLR3wQyye1i1A2iQWoPiFr",
        "fromUserAccount": "Stranger1",
        "mint": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
        "toTokenAccount": "3uySTNgvGT2kwqpfgLiSgeBLR3wQyye1i1A2iQWoPiFr",
        "toUserAccount": "MoverAAAA",
        "tokenAmount": 1500.25,
        "tokenStandard": "Fungible"
      }
    ],
    "type": "SWAP"
  }
]`

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	return r
}

func post(r http.Handler, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_AcceptsDelivery(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(&Handler{Ingester: f.ingester})

	rec := post(r, samplePayload, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Webhook received"}`, rec.Body.String())

	tx, err := f.txs.Get(context.Background(), "5wHu1qwD7q5ifaN5nwdcDqNFo53GJqa7nLp2BeeEpcHCusb4GzARz4GjgzsEHMkBMgCJMGa6GSQ1VG96Exv8kt2W")
	require.NoError(t, err)
	assert.Equal(t, "1500.25", tx.Amount.String())
	assert.Equal(t, int64(171341028), tx.Slot)
	assert.Equal(t, []string{"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"}, f.backfill.calls)
}

// ctxTransactions fails writes on a done context like a database driver would.
type ctxTransactions struct {
	*memory.MoverTransactionStore
}

func (s ctxTransactions) Upsert(ctx context.Context, tx *domain.MoverTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MoverTransactionStore.Upsert(ctx, tx)
}

func TestHandler_SenderDisconnectDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)
	in := NewIngester(Options{
		Registry:     f.registry,
		Transactions: ctxTransactions{f.txs},
		Tokens:       f.tokens,
		Backfiller:   f.backfill,
	})
	r := newTestRouter(&Handler{Ingester: in})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(samplePayload)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	n, err := f.txs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHandler_RejectsMalformedJSON(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(&Handler{Ingester: f.ingester})

	rec := post(r, `{"not":"an array"`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	n, err := f.txs.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_AuthToken(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(&Handler{Ingester: f.ingester, AuthToken: "s3cret"})

	assert.Equal(t, http.StatusUnauthorized, post(r, samplePayload, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, samplePayload, "wrong").Code)
	assert.Equal(t, http.StatusOK, post(r, samplePayload, "s3cret").Code)
}

func TestHandler_EmptyBatch(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(&Handler{Ingester: f.ingester})

	rec := post(r, `[]`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
