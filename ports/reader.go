package ports

import (
	"context"

	"gomend/domain/table"
)

// TableReader loads a table from an external source
type TableReader interface {
	ReadTable(ctx context.Context) (*table.Table, error)
}

// TableWriter persists a table
type TableWriter interface {
	WriteTable(t *table.Table) error
}
