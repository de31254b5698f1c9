package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLite_RecordAndGetProfit(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	rec := ProfitRecord{
		TradeID: "01HTRADE",
		Symbol:  "BTCUSDT",
		Side:    "LONG",
		Gain:    19.96,
		Time:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, j.RecordProfit(rec))

	got, err := j.GetProfit("01HTRADE")
	require.NoError(t, err)
	assert.Equal(t, rec.Symbol, got.Symbol)
	assert.Equal(t, rec.Side, got.Side)
	assert.InDelta(t, rec.Gain, got.Gain, 1e-9)

	_, err = j.GetProfit("missing")
	assert.Error(t, err)
}

func TestSQLite_ListProfitsBetween(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, gain := range []float64{10, -5, 7} {
		require.NoError(t, j.RecordProfit(ProfitRecord{
			TradeID: string(rune('a' + i)),
			Symbol:  "BTCUSDT",
			Side:    "LONG",
			Gain:    gain,
			Time:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	// [base, base+2h) excludes the third record
	got, err := j.ListProfitsBetween(base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10.0, got[0].Gain)
	assert.Equal(t, -5.0, got[1].Gain)
}

func TestSQLite_ListFills(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fills := []FillRecord{
		{TradeID: "a", Symbol: "BTCUSDT", Type: "open", Side: "BUY", Price: 100, Size: 1.996, Time: base},
		{TradeID: "a", Symbol: "BTCUSDT", Type: "close", Side: "SELL", Price: 110, Size: 1.996, Time: base.Add(time.Hour)},
		{TradeID: "b", Symbol: "ETHUSDT", Type: "open", Side: "SELL", Price: 50, Size: 3, Time: base},
	}
	for _, f := range fills {
		require.NoError(t, j.RecordFill(f))
	}

	got, err := j.ListFills("BTCUSDT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "open", got[0].Type)
	assert.Equal(t, "close", got[1].Type)
	assert.Equal(t, 110.0, got[1].Price)
}
