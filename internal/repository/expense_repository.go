package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenselens/internal/models"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// ErrNoRows is returned by QueryFirstRow when the query executes
// successfully but matches nothing. Callers use it to tell "no data" apart
// from an execution failure.
var ErrNoRows = errors.New("query returned no rows")

type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Insert persists one record and assigns its store-generated ID.
func (r *ExpenseRepository) Insert(ctx context.Context, rec *models.ExpenseRecord) error {
	query := squirrel.Insert("expenses").
		Columns("date", "account", "amount", "category").
		Values(rec.Date, rec.Account, rec.Amount, rec.Category)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id

	return nil
}

// InsertAll inserts each record independently: a failing record is logged
// and skipped without aborting its siblings. Returns the records that were
// persisted, with IDs assigned. Nothing deduplicates re-ingested
// statements; identical batches produce duplicate rows.
func (r *ExpenseRepository) InsertAll(ctx context.Context, records []*models.ExpenseRecord) []*models.ExpenseRecord {
	inserted := make([]*models.ExpenseRecord, 0, len(records))
	for _, rec := range records {
		if err := r.Insert(ctx, rec); err != nil {
			r.logger.Warn("Failed to insert expense record",
				zap.String("date", rec.Date),
				zap.String("account", rec.Account),
				zap.Error(err),
			)
			continue
		}
		inserted = append(inserted, rec)
	}
	return inserted
}

func (r *ExpenseRepository) Count(ctx context.Context) (int64, error) {
	query := squirrel.Select("COUNT(*)").From("expenses")

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ExpenseRepository) List(ctx context.Context, limit, offset int) ([]*models.ExpenseRecord, error) {
	query := squirrel.Select("id", "date", "account", "amount", "category").
		From("expenses").
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ExpenseRecord
	for rows.Next() {
		var rec models.ExpenseRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Account, &rec.Amount, &rec.Category); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// QueryFirstRow executes a raw query string against the store and returns
// the first result row as column names plus values. The query comes from a
// language model, already vetted by the caller; execution errors surface
// verbatim, an empty result set surfaces as ErrNoRows.
func (r *ExpenseRepository) QueryFirstRow(ctx context.Context, query string) ([]string, []any, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrNoRows
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, nil, err
	}

	// The driver hands text columns back as []byte in some paths
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}

	return columns, values, nil
}
