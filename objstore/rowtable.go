package objstore

import "reflect"

// Row is one record: application-defined values, keyed by Row[0].
type Row []any

// Unknown wraps a literal whose type the caller has not yet resolved — the
// Go-native stand-in for PostgreSQL's "unknown"-typed literal constant. When
// config.Config.ConvertUnknownOID is enabled, an Unknown first column is
// promoted to a plain string before the row's descriptor is captured.
type Unknown string

// RecordTable is a record variable's keyed row set: a table over the row's
// first column value, dropped in one step by the owning Variable's removal
// rather than walked row by row (spec.md §5 resource discipline).
type RecordTable struct {
	descriptor Descriptor
	rows       map[any]Row
}

// Descriptor describes a record variable's established row shape: one
// reflected type per column, captured from the first inserted row. A nil
// entry means that column was null in the first row; it stays unconstrained
// for every later row, since the descriptor is never updated.
type Descriptor struct {
	ColumnTypes []reflect.Type
}

func (d Descriptor) established() bool {
	return d.ColumnTypes != nil
}

// NumColumns reports the column count of an established descriptor, or -1
// if none has been captured yet.
func (d Descriptor) NumColumns() int {
	if !d.established() {
		return -1
	}
	return len(d.ColumnTypes)
}

// NewRecordTable creates an empty table; its descriptor is established by
// the first Insert.
func NewRecordTable() *RecordTable {
	return &RecordTable{rows: make(map[any]Row)}
}

// Clone deep-copies the table for "create savepoint": a fresh map with every
// row re-inserted into a freshly built row table (spec.md §4.3).
func (t *RecordTable) Clone() *RecordTable {
	if t == nil {
		return nil
	}
	clone := &RecordTable{descriptor: t.descriptor, rows: make(map[any]Row, len(t.rows))}
	for k, row := range t.rows {
		clone.rows[k] = append(Row(nil), row...)
	}
	return clone
}

// Insert validates row against the established descriptor (capturing it on
// the first call) and upserts by Row[0], which may be nil: a row keyed by
// SQL NULL is a single, well-defined slot like any other key (spec.md §6
// "delete row ... Null key deletes the row whose key is null"), and Go's
// map[any]Row already treats a nil interface key like any other value.
// Returns ErrTypeMismatch on a column-type disagreement with the cached
// descriptor.
func (t *RecordTable) Insert(row Row, convertUnknownOID bool) error {
	if len(row) == 0 {
		return ErrInvalidParameter
	}
	row = append(Row(nil), row...)
	if u, ok := row[0].(Unknown); ok && convertUnknownOID {
		row[0] = string(u)
	}
	if !t.descriptor.established() {
		t.descriptor = captureDescriptor(row)
	} else if !t.descriptor.matches(row) {
		return ErrTypeMismatch
	}
	t.rows[row[0]] = row
	return nil
}

// Update replaces the row matching key's value, reporting whether one
// existed. key may be nil, matching Insert's null-key row.
func (t *RecordTable) Update(row Row) (bool, error) {
	if len(row) == 0 {
		return false, ErrInvalidParameter
	}
	if t.descriptor.established() && !t.descriptor.matches(row) {
		return false, ErrTypeMismatch
	}
	if _, ok := t.rows[row[0]]; !ok {
		return false, nil
	}
	t.rows[row[0]] = append(Row(nil), row...)
	return true, nil
}

// Delete removes the row keyed by key, reporting whether one existed.
func (t *RecordTable) Delete(key any) bool {
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	return true
}

// SelectByKey returns the single row matching key, or nil if none.
func (t *RecordTable) SelectByKey(key any) (Row, bool) {
	row, ok := t.rows[key]
	return row, ok
}

// SelectByKeys returns the rows matching each of keys, in order, skipping
// unmatched elements. Multidimensional input (an element that is itself a
// []any) fails ErrFeatureNotSupported; nothing is flattened.
func (t *RecordTable) SelectByKeys(keys []any) ([]Row, error) {
	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		switch key.(type) {
		case []any:
			return nil, ErrFeatureNotSupported
		}
		if row, ok := t.rows[key]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// All returns every row, in the table's internal (unordered) order, for a
// fresh iteration scan.
func (t *RecordTable) All() []Row {
	rows := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, row)
	}
	return rows
}

// Len reports the row count.
func (t *RecordTable) Len() int {
	return len(t.rows)
}

// EstimateRowCount is the planner-support heuristic from spec.md §9: the
// original derives an estimate from arena internals specific to its host;
// here the row count is exact and in memory, so this simply returns it,
// explicitly kept as a separate, replaceable entry point rather than having
// callers read Len() directly.
func (t *RecordTable) EstimateRowCount() int {
	return t.Len()
}

func captureDescriptor(row Row) Descriptor {
	types := make([]reflect.Type, len(row))
	for i, v := range row {
		if v != nil {
			types[i] = reflect.TypeOf(v)
		}
	}
	return Descriptor{ColumnTypes: types}
}

func (d Descriptor) matches(row Row) bool {
	if len(row) != len(d.ColumnTypes) {
		return false
	}
	for i, v := range row {
		if v == nil || d.ColumnTypes[i] == nil {
			continue
		}
		if reflect.TypeOf(v) != d.ColumnTypes[i] {
			return false
		}
	}
	return true
}
