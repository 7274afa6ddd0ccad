package table

import (
	"sort"
	"strconv"
)

// ColumnRef identifies a column by name or by position.
type ColumnRef struct {
	name    string
	index   int
	byIndex bool

	// positional fallback for a parsed all-digit name
	fallback bool
}

// Name refers to a column by name.
func Name(name string) ColumnRef { return ColumnRef{name: name} }

// Index refers to a column by position.
func Index(i int) ColumnRef { return ColumnRef{index: i, byIndex: true} }

// ParseRef treats s as a column name. An all-digit s that names no column
// resolves to that position instead.
func ParseRef(s string) ColumnRef {
	if i, err := strconv.Atoi(s); err == nil && i >= 0 {
		return ColumnRef{name: s, index: i, fallback: true}
	}
	return Name(s)
}

func (r ColumnRef) String() string {
	if r.byIndex {
		return "#" + strconv.Itoa(r.index)
	}
	return r.name
}

// RowSet is an unordered set of row ids.
type RowSet map[RowID]struct{}

// NewRowSet builds a set from ids.
func NewRowSet(ids ...RowID) RowSet {
	s := make(RowSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s RowSet) Add(id RowID) { s[id] = struct{}{} }

func (s RowSet) Contains(id RowID) bool {
	_, ok := s[id]
	return ok
}

func (s RowSet) Len() int { return len(s) }

// IDs returns the ids in ascending order.
func (s RowSet) IDs() []RowID {
	ids := make([]RowID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
