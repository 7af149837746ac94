package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRecordHelpers(t *testing.T) {
	m := DefaultMetrics

	before := testutil.ToFloat64(m.SchedulerTicks)
	RecordTick(7, 2*time.Second)
	if got := testutil.ToFloat64(m.SchedulerTicks); got != before+1 {
		t.Errorf("ticks = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(m.SchedulerDueEntries); got != 7 {
		t.Errorf("due entries = %v, want 7", got)
	}

	facet := m.EnrichmentFacets.WithLabelValues("social", "failed")
	before = testutil.ToFloat64(facet)
	RecordFacet("social", "failed")
	if got := testutil.ToFloat64(facet); got != before+1 {
		t.Errorf("facet counter = %v, want %v", got, before+1)
	}

	buys := m.WebhookTransfers.WithLabelValues("buy")
	before = testutil.ToFloat64(buys)
	RecordMoverTransfer("buy")
	RecordMoverTransfer("buy")
	if got := testutil.ToFloat64(buys); got != before+2 {
		t.Errorf("buy transfers = %v, want %v", got, before+2)
	}

	errs := m.ProviderErrors.WithLabelValues("birdeye", "status_5xx")
	before = testutil.ToFloat64(errs)
	RecordProviderCall("birdeye", "token_overview", 100*time.Millisecond, "")
	RecordProviderCall("birdeye", "token_overview", 100*time.Millisecond, "status_5xx")
	if got := testutil.ToFloat64(errs); got != before+1 {
		t.Errorf("provider errors = %v, want %v", got, before+1)
	}

	UpdateFearGreed("solana", 46)
	if got := testutil.ToFloat64(m.FearGreedValue.WithLabelValues("solana")); got != 46 {
		t.Errorf("fear greed gauge = %v, want 46", got)
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := setupLogging(&buf, "warn", "json")
	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "shown" || entry["component"] != "test" {
		t.Errorf("unexpected entry: %v", entry)
	}

	buf.Reset()
	logger = setupLogging(&buf, "bogus", "json")
	logger.Info().Msg("visible")
	if buf.Len() == 0 {
		t.Error("unknown level should fall back to info")
	}
}
