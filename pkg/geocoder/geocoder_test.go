package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pathsync/pkg/kv"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLiteral(t *testing.T) {
	cases := []struct {
		in       string
		ok       bool
		lat, lon float64
	}{
		{"12.3052,76.6552", true, 12.3052, 76.6552},
		{" 12.30 , 76.65 ", true, 12.30, 76.65},
		{"12,76", false, 0, 0},
		{"Mysore Palace", false, 0, 0},
		{"St. Philomena's Church, Ashoka Rd.", false, 0, 0},
		{"1.2,3.4,5.6", false, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := ParseLiteral(c.in)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.lat, got.Lat)
				assert.Equal(t, c.lon, got.Lon)
			}
		})
	}
}

func nominatim(t *testing.T, body string) (*httptest.Server, *int32, *atomic.Value) {
	t.Helper()
	var calls int32
	var lastQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		lastQuery.Store(r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &lastQuery
}

func newGeocoder(t *testing.T, baseURL string, store Store) *Geocoder {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.Retries = 0
	g, err := New(cfg, store, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestResolveLiteralSkipsLookup(t *testing.T) {
	srv, calls, _ := nominatim(t, `[]`)
	g := newGeocoder(t, srv.URL, nil)

	res, err := g.Resolve(context.Background(), "12.3052,76.6552")
	require.NoError(t, err)
	assert.True(t, res.Literal)
	assert.Equal(t, 12.3052, res.Coordinate.Lat)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestResolveSearchesWithRegionAndCaches(t *testing.T) {
	srv, calls, lastQuery := nominatim(t, `[{"lat":"12.3052","lon":"76.6552","display_name":"Mysore Palace"}]`)
	store, err := kv.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	g := newGeocoder(t, srv.URL, store)

	res, err := g.Resolve(context.Background(), "Mysore Palace")
	require.NoError(t, err)
	assert.Equal(t, "Mysore Palace, Mysuru, Karnataka", lastQuery.Load())
	assert.Equal(t, 76.6552, res.Coordinate.Lon)
	assert.False(t, res.Literal)

	_, err = g.Resolve(context.Background(), "mysore palace")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	rec, ok, err := store.GetGeocode("mysore palace")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.3052, rec.Lat)

	// a fresh process only has the disk cache
	g2 := newGeocoder(t, srv.URL, store)
	res, err = g2.Resolve(context.Background(), "Mysore Palace")
	require.NoError(t, err)
	assert.Equal(t, "Mysore Palace", res.DisplayName)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestResolveUnknownPlace(t *testing.T) {
	srv, _, _ := nominatim(t, `[]`)
	g := newGeocoder(t, srv.URL, nil)

	_, err := g.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrLocationUnresolved)

	_, err = g.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrLocationUnresolved)
}

func TestWarm(t *testing.T) {
	srv, calls, _ := nominatim(t, `[{"lat":"12.30","lon":"76.65","display_name":"x"}]`)
	g := newGeocoder(t, srv.URL, nil)

	n := g.Warm(context.Background(), []string{"a", "b", "c", "12.1,76.1"}, 2)
	assert.Equal(t, 4, n)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}
