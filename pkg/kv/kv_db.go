package kv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/uber/h3-go/v4"
)

const (
	geocodePrefix = "geocode:"
	cellPrefix    = "cell:"
	// CellResolution is the h3 resolution cached places are bucketed at.
	CellResolution = 9
)

// KVDB is the on-disk geocode cache. Each resolved query is stored under its normalized text, and
// an h3 cell index lets callers list cached places around a point.
type KVDB struct {
	db  *pebble.DB
	now func() time.Time
}

func NewKVDB(db *pebble.DB) *KVDB {
	return &KVDB{db: db, now: time.Now}
}

func Open(dir string, opts *pebble.Options) (*KVDB, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return NewKVDB(db), nil
}

func normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (k *KVDB) SaveGeocode(query string, rec GeocodeRecord) error {
	cell := h3.LatLngToCell(h3.NewLatLng(rec.Lat, rec.Lon), CellResolution)
	rec.Cell = uint64(cell)
	if rec.CachedAt == 0 {
		rec.CachedAt = k.now().Unix()
	}
	bb, err := Encode(rec)
	if err != nil {
		return err
	}
	val, err := Compress(bb)
	if err != nil {
		return err
	}

	key := normalize(query)
	batch := k.db.NewBatch()
	defer batch.Close()
	if err := batch.Set([]byte(geocodePrefix+key), val, nil); err != nil {
		return err
	}
	if err := batch.Set([]byte(cellPrefix+cell.String()+":"+key), nil, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// GetGeocode returns the cached record for query. ok is false on a miss.
func (k *KVDB) GetGeocode(query string) (rec GeocodeRecord, ok bool, err error) {
	val, closer, err := k.db.Get([]byte(geocodePrefix + normalize(query)))
	if errors.Is(err, pebble.ErrNotFound) {
		return GeocodeRecord{}, false, nil
	}
	if err != nil {
		return GeocodeRecord{}, false, err
	}
	defer closer.Close()

	bb, err := Decompress(val)
	if err != nil {
		return GeocodeRecord{}, false, err
	}
	rec, err = Decode(bb)
	if err != nil {
		return GeocodeRecord{}, false, err
	}
	return rec, true, nil
}

// QueriesNear lists cached queries whose place lies in the h3 cell of (lat, lon) or the ring of
// cells within k steps of it.
func (k *KVDB) QueriesNear(lat, lon float64, ring int) ([]string, error) {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lon), CellResolution)
	var out []string
	for _, cell := range h3.GridDisk(origin, ring) {
		prefix := []byte(cellPrefix + cell.String() + ":")
		iter, err := k.db.NewIter(&pebble.IterOptions{
			LowerBound: prefix,
			UpperBound: prefixUpperBound(prefix),
		})
		if err != nil {
			return nil, err
		}
		for iter.First(); iter.Valid(); iter.Next() {
			out = append(out, string(iter.Key()[len(prefix):]))
		}
		if err := iter.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
