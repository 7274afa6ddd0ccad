// Package postgres loads query results as tables and stores tables with COPY.
package postgres

import (
	"context"
	"fmt"

	"gomend/adapters/coercer"
	"gomend/domain/table"
	"gomend/internal/errors"
	"gomend/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens a postgres connection pool and pings it.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to postgres", err)
	}
	return db, nil
}

// QueryReader reads the result set of one query
type QueryReader struct {
	db      *sqlx.DB
	query   string
	args    []interface{}
	coercer *coercer.TypeCoercer
}

// NewQueryReader creates a reader that runs query with args.
func NewQueryReader(db *sqlx.DB, query string, args ...interface{}) ports.TableReader {
	return &QueryReader{
		db:      db,
		query:   query,
		args:    args,
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
	}
}

// ReadTable runs the query and converts every row.
func (r *QueryReader) ReadTable(ctx context.Context) (*table.Table, error) {
	rows, err := r.db.QueryxContext(ctx, r.query, r.args...)
	if err != nil {
		return nil, errors.DatabaseError("failed to run query", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read result columns", err)
	}
	var data [][]interface{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, errors.DatabaseError("failed to scan row", err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate rows", err)
	}
	return buildTable(r.coercer, names, data)
}

// buildTable converts driver values column by column. A column holding a
// single kind of value gets the matching dtype; mixed columns are object.
func buildTable(c *coercer.TypeCoercer, names []string, data [][]interface{}) (*table.Table, error) {
	cols := make([]*table.Column, len(names))
	for j, name := range names {
		values := make([]table.Value, len(data))
		integral := true
		for i, row := range data {
			if j >= len(row) {
				return nil, errors.ValidationError(fmt.Sprintf("row %d has %d values, expected %d", i, len(row), len(names)))
			}
			switch row[j].(type) {
			case int64, int32, int:
			case nil:
			default:
				integral = false
			}
			values[i] = c.CoerceValue(row[j])
		}

		col, err := table.NewColumn(name, dtypeOf(values, integral), values)
		if err != nil {
			return nil, errors.ValidationError(err.Error())
		}
		cols[j] = col
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build table from query result")
	}
	return t, nil
}

func dtypeOf(values []table.Value, integral bool) table.DType {
	var seen table.ValueType
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		if seen == "" {
			seen = v.Type()
		} else if v.Type() != seen {
			return table.DTypeObject
		}
	}

	switch seen {
	case table.ValueTypeNumeric:
		if integral {
			return table.DTypeInt
		}
		return table.DTypeFloat
	case table.ValueTypeString:
		return table.DTypeString
	case table.ValueTypeBoolean:
		return table.DTypeBool
	case table.ValueTypeTimestamp:
		return table.DTypeDatetime
	}
	return table.DTypeFloat
}
