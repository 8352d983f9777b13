package objstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordTableInsertAndSelectByKey(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{"k1", 1}, true))
	require.NoError(t, tbl.Insert(Row{"k2", 2}, true))

	row, ok := tbl.SelectByKey("k1")
	require.True(t, ok)
	require.Equal(t, Row{"k1", 1}, row)

	_, ok = tbl.SelectByKey("missing")
	require.False(t, ok)
}

func TestRecordTableInsertRejectsTypeMismatch(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{"k1", 1}, true))
	err := tbl.Insert(Row{"k2", "not an int"}, true)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRecordTableConvertsUnknownFirstColumn(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{Unknown("k1"), 1}, true))
	_, ok := tbl.SelectByKey("k1")
	require.True(t, ok, "expected Unknown key promoted to string")
}

func TestRecordTableUpdateAndDelete(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{"k1", 1}, true))

	updated, err := tbl.Update(Row{"k1", 99})
	require.NoError(t, err)
	require.True(t, updated)
	row, _ := tbl.SelectByKey("k1")
	require.Equal(t, Row{"k1", 99}, row)

	missing, err := tbl.Update(Row{"k2", 1})
	require.NoError(t, err)
	require.False(t, missing)

	require.True(t, tbl.Delete("k1"))
	require.False(t, tbl.Delete("k1"))
}

func TestRecordTableSelectByKeysSkipsUnmatchedAndRejectsNested(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{"k1", 1}, true))
	require.NoError(t, tbl.Insert(Row{"k2", 2}, true))

	rows, err := tbl.SelectByKeys([]any{"k1", "missing", "k2"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, err = tbl.SelectByKeys([]any{[]any{"nested"}})
	require.ErrorIs(t, err, ErrFeatureNotSupported)
}

func TestRecordTableCloneIsIndependent(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{"k1", 1}, true))

	clone := tbl.Clone()
	_, err := clone.Update(Row{"k1", 2})
	require.NoError(t, err)

	original, _ := tbl.SelectByKey("k1")
	cloned, _ := clone.SelectByKey("k1")
	require.Equal(t, Row{"k1", 1}, original)
	require.Equal(t, Row{"k1", 2}, cloned)
}

func TestRecordTableInsertAndDeleteNullKeyedRow(t *testing.T) {
	tbl := NewRecordTable()
	require.NoError(t, tbl.Insert(Row{nil, "payload"}, true))

	row, ok := tbl.SelectByKey(nil)
	require.True(t, ok)
	require.Equal(t, Row{nil, "payload"}, row)

	require.True(t, tbl.Delete(nil))
	_, ok = tbl.SelectByKey(nil)
	require.False(t, ok)
}

func TestRecordTableEstimateRowCount(t *testing.T) {
	tbl := NewRecordTable()
	require.Equal(t, 0, tbl.EstimateRowCount())
	require.NoError(t, tbl.Insert(Row{"k1", 1}, true))
	require.Equal(t, 1, tbl.EstimateRowCount())
}
