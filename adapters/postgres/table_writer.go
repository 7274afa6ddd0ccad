package postgres

import (
	"context"
	"fmt"
	"strings"

	"gomend/domain/table"
	"gomend/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TableWriter stores tables into one postgres table
type TableWriter struct {
	db   *sqlx.DB
	name string
}

// NewTableWriter creates a writer targeting the table name.
func NewTableWriter(db *sqlx.DB, name string) *TableWriter {
	return &TableWriter{db: db, name: name}
}

// WriteTable is WriteTableContext with a background context.
func (w *TableWriter) WriteTable(t *table.Table) error {
	return w.WriteTableContext(context.Background(), t)
}

// WriteTableContext creates the target if needed and loads every row with
// COPY inside one transaction.
func (w *TableWriter) WriteTableContext(ctx context.Context, t *table.Table) error {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createStatement(w.name, t)); err != nil {
		return errors.DatabaseError("failed to create table", err)
	}

	stmt, err := tx.PreparexContext(ctx, pq.CopyIn(w.name, t.ColumnNames()...))
	if err != nil {
		return errors.DatabaseError("failed to prepare copy", err)
	}
	for pos := 0; pos < t.NumRows(); pos++ {
		if _, err := stmt.ExecContext(ctx, rowArgs(t, pos)...); err != nil {
			stmt.Close()
			return errors.DatabaseError(fmt.Sprintf("failed to copy row %d", pos), err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return errors.DatabaseError("failed to flush copy", err)
	}
	if err := stmt.Close(); err != nil {
		return errors.DatabaseError("failed to close copy", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit", err)
	}
	return nil
}

func createStatement(name string, t *table.Table) string {
	defs := make([]string, 0, t.NumColumns())
	for _, c := range t.Columns() {
		defs = append(defs, pq.QuoteIdentifier(c.Name())+" "+sqlType(c.DType()))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pq.QuoteIdentifier(name), strings.Join(defs, ", "))
}

func sqlType(d table.DType) string {
	switch d {
	case table.DTypeInt:
		return "BIGINT"
	case table.DTypeFloat:
		return "DOUBLE PRECISION"
	case table.DTypeDatetime:
		return "TIMESTAMPTZ"
	case table.DTypeBool:
		return "BOOLEAN"
	}
	return "TEXT"
}

func rowArgs(t *table.Table, pos int) []interface{} {
	args := make([]interface{}, t.NumColumns())
	for j, c := range t.Columns() {
		v := c.At(pos)
		switch {
		case v.IsMissing():
			args[j] = nil
		case c.DType() == table.DTypeInt:
			args[j] = int64(v.Float())
		case c.DType() == table.DTypeObject:
			args[j] = v.String()
		default:
			args[j] = v.Interface()
		}
	}
	return args
}
