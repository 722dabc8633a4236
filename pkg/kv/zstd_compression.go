package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// GeocodeRecord is a resolved place as stored in the cache.
type GeocodeRecord struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Cell        uint64 // h3 cell at the cache resolution
	CachedAt    int64  // unix seconds
}

func Encode(rec GeocodeRecord) ([]byte, error) {
	return binary.Marshal(rec)
}

func Decode(bb []byte) (GeocodeRecord, error) {
	var rec GeocodeRecord
	err := binary.Unmarshal(bb, &rec)
	return rec, err
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}
