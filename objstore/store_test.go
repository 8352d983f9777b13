package objstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

func TestStoreCreatePackageIsIdempotent(t *testing.T) {
	s := NewStore()
	p1, err := s.CreatePackage("p", savepoint.Level{}, nil)
	require.NoError(t, err)
	p2, err := s.CreatePackage("p", savepoint.Level{}, nil)
	require.NoError(t, err)
	require.Same(t, p1, p2)
	require.Equal(t, 1, s.Len())
}

func TestStoreCreatePackageRejectsOverlongName(t *testing.T) {
	s := NewStore()
	_, err := s.CreatePackage(strings.Repeat("p", MaxNameLength+1), savepoint.Level{}, nil)
	require.ErrorIs(t, err, ErrInvalidParameter)
	require.Equal(t, 0, s.Len())
}

func TestStoreGetPackageStrictFailsOnUnknown(t *testing.T) {
	s := NewStore()
	_, err := s.GetPackage("missing", true)
	require.ErrorIs(t, err, ErrUnknownPackage)

	p, err := s.GetPackage("missing", false)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestStoreRemovePackageThenDropPhysicallyRemoves(t *testing.T) {
	s := NewStore()
	_, err := s.CreatePackage("p", savepoint.Level{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.RemovePackage("p", savepoint.Level{}, nil))

	_, err = s.GetPackage("p", true)
	require.ErrorIs(t, err, ErrUnknownPackage, "invalidated package should not be returned even before Drop")

	s.Drop("p")
	require.Equal(t, 0, s.Len())
}

func TestStoreListPackagesAndVariablesSkipsInvalid(t *testing.T) {
	s := NewStore()
	p, err := s.CreatePackage("p", savepoint.Level{}, nil)
	require.NoError(t, err)
	_, err = p.CreateVariable("x", 23, false, true, savepoint.Level{}, nil)
	require.NoError(t, err)
	_, err = p.CreateVariable("gone", 23, false, true, savepoint.Level{}, nil)
	require.NoError(t, err)
	require.NoError(t, p.RemoveVariable("gone", savepoint.Level{}, nil))

	rows := s.ListPackagesAndVariables()
	require.Len(t, rows, 1)
	require.Equal(t, "x", rows[0].Variable)
}

func TestStorePackageStatsCountsRecordRows(t *testing.T) {
	s := NewStore()
	p, err := s.CreatePackage("p", savepoint.Level{}, nil)
	require.NoError(t, err)
	v, err := p.CreateVariable("t", 23, true, true, savepoint.Level{}, nil)
	require.NoError(t, err)
	tbl, err := v.Records()
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(Row{"k", 1}, true))
	require.NoError(t, tbl.Insert(Row{"k2", 2}, true))

	stats := s.PackageStats()
	require.Len(t, stats, 1)
	require.Equal(t, 2, stats[0].EstBytes)
}

func TestStoreRemoveAllInvalidatesEveryPackage(t *testing.T) {
	s := NewStore()
	_, err := s.CreatePackage("a", savepoint.Level{}, nil)
	require.NoError(t, err)
	_, err = s.CreatePackage("b", savepoint.Level{}, nil)
	require.NoError(t, err)

	s.RemoveAll(savepoint.Level{}, nil)

	_, errA := s.GetPackage("a", true)
	_, errB := s.GetPackage("b", true)
	require.ErrorIs(t, errA, ErrUnknownPackage)
	require.ErrorIs(t, errB, ErrUnknownPackage)
}
