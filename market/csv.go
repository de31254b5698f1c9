package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Columns written and expected by the candle CSV format. A header row is
// optional when reading.
var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// SaveCSV writes candles to path, one row per candle, with a header row.
func SaveCSV(path string, candles []Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save candles: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range candles {
		row := []string{
			c.Time.UTC().Format(time.RFC3339),
			fmtF(c.Open),
			fmtF(c.High),
			fmtF(c.Low),
			fmtF(c.Close),
			fmtF(c.Volume),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// LoadCSV reads candles from path. Rows must be time-ascending; a leading
// header row is skipped.
func LoadCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Candle
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load candles: %w", err)
		}
		if len(row) < 6 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		c, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("load candles: %w", err)
		}
		out = append(out, c)
	}

	return out, nil
}

func parseRow(row []string) (Candle, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
	if err != nil {
		return Candle{}, fmt.Errorf("bad time %q: %w", row[0], err)
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad value %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	return Candle{
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func fmtF(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
