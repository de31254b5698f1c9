package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Journal backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and ensures the schema
// exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills (trade_id, symbol, type, side, price, size, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.TradeID, f.Symbol, f.Type, f.Side, f.Price, f.Size, f.Time,
	)
	return err
}

func (j *SQLite) RecordProfit(p ProfitRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO profits (trade_id, symbol, side, gain, time)
		VALUES (?, ?, ?, ?, ?)`,
		p.TradeID, p.Symbol, p.Side, p.Gain, p.Time,
	)
	return err
}

// GetProfit returns a single profit record by trade ID.
func (j *SQLite) GetProfit(tradeID string) (ProfitRecord, error) {
	var rec ProfitRecord

	row := j.db.QueryRow(`
		SELECT trade_id, symbol, side, gain, time
		FROM profits
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(&rec.TradeID, &rec.Symbol, &rec.Side, &rec.Gain, &rec.Time)
	if err != nil {
		if err == sql.ErrNoRows {
			return ProfitRecord{}, fmt.Errorf("profit %q not found", tradeID)
		}
		return ProfitRecord{}, err
	}
	return rec, nil
}

// ListProfitsBetween returns profits realized within [start, end), oldest
// first. Report cycles use this to rebuild win/loss statistics.
func (j *SQLite) ListProfitsBetween(start, end time.Time) ([]ProfitRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, gain, time
		FROM profits
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfitRecord
	for rows.Next() {
		var rec ProfitRecord
		if err := rows.Scan(&rec.TradeID, &rec.Symbol, &rec.Side, &rec.Gain, &rec.Time); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFills returns all fills for a symbol, oldest first.
func (j *SQLite) ListFills(symbol string) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, type, side, price, size, time
		FROM fills
		WHERE symbol = ?
		ORDER BY time ASC`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var rec FillRecord
		if err := rows.Scan(&rec.TradeID, &rec.Symbol, &rec.Type, &rec.Side, &rec.Price, &rec.Size, &rec.Time); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
