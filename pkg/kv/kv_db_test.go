package kv

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *KVDB {
	t.Helper()
	k, err := Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func TestGeocodeCacheRoundTrip(t *testing.T) {
	k := openMem(t)

	_, ok, err := k.GetGeocode("Mysore Palace")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, k.SaveGeocode("Mysore Palace", GeocodeRecord{
		Lat:         12.3052,
		Lon:         76.6552,
		DisplayName: "Mysore Palace, Mysuru, Karnataka",
	}))

	rec, ok, err := k.GetGeocode("  mysore   PALACE ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.3052, rec.Lat)
	assert.Equal(t, 76.6552, rec.Lon)
	assert.Equal(t, "Mysore Palace, Mysuru, Karnataka", rec.DisplayName)
	assert.NotZero(t, rec.Cell)
	assert.NotZero(t, rec.CachedAt)
}

func TestQueriesNear(t *testing.T) {
	k := openMem(t)
	require.NoError(t, k.SaveGeocode("palace", GeocodeRecord{Lat: 12.3052, Lon: 76.6552}))
	require.NoError(t, k.SaveGeocode("zoo", GeocodeRecord{Lat: 12.3024, Lon: 76.6647}))
	require.NoError(t, k.SaveGeocode("bangalore", GeocodeRecord{Lat: 12.9716, Lon: 77.5946}))

	near, err := k.QueriesNear(12.3052, 76.6552, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"palace"}, near)

	wide, err := k.QueriesNear(12.3052, 76.6552, 8)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"palace", "zoo"}, wide)
}
