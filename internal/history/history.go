// Package history persists AnalysisRecords into the analysis_history table
// (spec §4.6 "History write" / §5 "Analysis History store").
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/cbram/clusterrisk/internal/model"
)

var ErrNotFound = errors.New("history: record not found")

// Repository persists and retrieves AnalysisRecords.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a completed run as one transaction and returns its assigned
// ID. Risk tables are stored as a single JSON blob; the history store has no
// need to query inside them.
func (r *Repository) Insert(ctx context.Context, rec model.AnalysisRecord) (int64, error) {
	payload, err := json.Marshal(rec.Tables)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_history (timestamp, total_value, total_positions, etf_count, stock_count, risk_data)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Unix(), rec.TotalValue, rec.TotalPositions, rec.ETFCount, rec.StockCount, payload,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns run summaries newest-first, capped at limit (0 means no cap).
func (r *Repository) List(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	query := `SELECT id, timestamp, total_value, total_positions, etf_count, stock_count, risk_data
	          FROM analysis_history ORDER BY timestamp DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one analysis record by ID.
func (r *Repository) Get(ctx context.Context, id int64) (model.AnalysisRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, timestamp, total_value, total_positions, etf_count, stock_count, risk_data
		FROM analysis_history WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalysisRecord{}, ErrNotFound
	}
	return rec, err
}

// Delete removes one analysis record by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analysis_history WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every analysis record; callers should VACUUM the underlying
// database afterwards to reclaim space (spec §5, history is a singleton
// keyed record store with a single writer).
func (r *Repository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM analysis_history`)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s rowScanner) (model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	var ts int64
	var payload []byte
	if err := s.Scan(&rec.ID, &ts, &rec.TotalValue, &rec.TotalPositions, &rec.ETFCount, &rec.StockCount, &payload); err != nil {
		return model.AnalysisRecord{}, err
	}
	rec.Timestamp = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal(payload, &rec.Tables); err != nil {
		return model.AnalysisRecord{}, err
	}
	return rec, nil
}
