package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV is a Journal writing fills and profits to two CSV files.
type CSV struct {
	fills   *csv.Writer
	profits *csv.Writer
	ff, pf  *os.File
}

// NewCSV creates (truncating) the two output files and writes headers.
func NewCSV(fillsPath, profitsPath string) (*CSV, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	pf, err := os.Create(profitsPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	pw := csv.NewWriter(pf)

	if err := fw.Write([]string{"trade_id", "symbol", "type", "side", "price", "size", "time"}); err != nil {
		return nil, err
	}
	if err := pw.Write([]string{"trade_id", "symbol", "side", "gain", "time"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	pw.Flush()
	if err := pw.Error(); err != nil {
		return nil, err
	}

	return &CSV{fills: fw, profits: pw, ff: ff, pf: pf}, nil
}

func (j *CSV) RecordFill(f FillRecord) error {
	err := j.fills.Write([]string{
		f.TradeID,
		f.Symbol,
		f.Type,
		f.Side,
		fmtF(f.Price),
		fmtF(f.Size),
		f.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSV) RecordProfit(p ProfitRecord) error {
	err := j.profits.Write([]string{
		p.TradeID,
		p.Symbol,
		p.Side,
		fmtF(p.Gain),
		p.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.profits.Flush()
	return j.profits.Error()
}

func (j *CSV) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.profits.Flush()
	if err := j.profits.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	return j.pf.Close()
}

func fmtF(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
