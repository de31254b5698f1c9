package market

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "BTCUSDT.csv")

	in := []Candle{
		{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Open: 100, High: 110, Low: 95, Close: 105, Volume: 12.5},
		{Time: time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC), Open: 105, High: 106.25, Low: 101, Close: 102.75, Volume: 7},
	}

	require.NoError(t, SaveCSV(path, in))

	out, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, in, out)
}

func TestLoadCSV_NoHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv")
	raw := "2024-06-01T00:00:00Z,1,2,0.5,1.5,3\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	out, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1.5, out[0].Close)
}

func TestLoadCSV_BadRow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv")
	raw := "time,open,high,low,close,volume\nnot-a-time,1,2,0.5,1.5,3\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestIntervalDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Hour, H1.Duration())
	assert.Equal(t, 24*time.Hour, D1.Duration())
	assert.Zero(t, Interval("7m").Duration())
}

func TestCloses(t *testing.T) {
	t.Parallel()

	cs := []Candle{{Close: 1}, {Close: 2.5}, {Close: -3}}
	assert.Equal(t, []float64{1, 2.5, -3}, Closes(cs))
}
