package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pathsync/pkg/concurrent"
	"pathsync/pkg/datastructure"
	"pathsync/pkg/kv"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var ErrLocationUnresolved = errors.New("location could not be resolved")

type Result struct {
	Coordinate  datastructure.Coordinate
	DisplayName string
	// Literal is set when the query was a "lat,lon" pair and no lookup happened.
	Literal bool
}

// Store is the persistent cache behind the in-memory LRU.
type Store interface {
	GetGeocode(query string) (kv.GeocodeRecord, bool, error)
	SaveGeocode(query string, rec kv.GeocodeRecord) error
}

type Config struct {
	BaseURL   string
	Region    string
	UserAgent string
	Timeout   time.Duration
	Retries   int
	CacheSize int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://nominatim.openstreetmap.org",
		Region:    "Mysuru, Karnataka",
		UserAgent: "pathsync-router",
		Timeout:   10 * time.Second,
		Retries:   2,
		CacheSize: 1024,
	}
}

type Geocoder struct {
	cfg    Config
	client heimdall.Doer
	cache  *lru.Cache[string, Result]
	store  Store
	log    *zap.Logger
}

// New builds a Nominatim geocoder. store may be nil.
func New(cfg Config, store Store, log *zap.Logger) (*Geocoder, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	cache, err := lru.New[string, Result](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 100*time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetryCount(cfg.Retries),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)
	return &Geocoder{cfg: cfg, client: client, cache: cache, store: store, log: log}, nil
}

// ParseLiteral accepts "lat,lon" strings: a comma and at least two dots, both parts numeric.
func ParseLiteral(s string) (datastructure.Coordinate, bool) {
	if !strings.Contains(s, ",") || strings.Count(s, ".") < 2 {
		return datastructure.Coordinate{}, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return datastructure.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return datastructure.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return datastructure.Coordinate{}, false
	}
	return datastructure.NewCoordinate(lat, lon), true
}

// Resolve turns a place name or a literal coordinate into a coordinate.
func (g *Geocoder) Resolve(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fmt.Errorf("%w: empty location", ErrLocationUnresolved)
	}
	if c, ok := ParseLiteral(query); ok {
		return Result{Coordinate: c, DisplayName: query, Literal: true}, nil
	}

	key := strings.ToLower(query)
	if res, ok := g.cache.Get(key); ok {
		return res, nil
	}
	if g.store != nil {
		rec, ok, err := g.store.GetGeocode(key)
		if err != nil {
			g.log.Warn("geocode cache read failed", zap.String("query", query), zap.Error(err))
		} else if ok {
			res := Result{Coordinate: datastructure.NewCoordinate(rec.Lat, rec.Lon), DisplayName: rec.DisplayName}
			g.cache.Add(key, res)
			return res, nil
		}
	}

	res, err := g.search(ctx, query)
	if err != nil {
		return Result{}, err
	}
	g.cache.Add(key, res)
	if g.store != nil {
		err := g.store.SaveGeocode(key, kv.GeocodeRecord{
			Lat:         res.Coordinate.Lat,
			Lon:         res.Coordinate.Lon,
			DisplayName: res.DisplayName,
		})
		if err != nil {
			g.log.Warn("geocode cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return res, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) search(ctx context.Context, query string) (Result, error) {
	q := query
	if g.cfg.Region != "" {
		q = query + ", " + g.cfg.Region
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(g.cfg.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q: %v", ErrLocationUnresolved, query, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: %q: geocoder status %d", ErrLocationUnresolved, query, res.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(res.Body).Decode(&places); err != nil {
		return Result{}, fmt.Errorf("%w: %q: %v", ErrLocationUnresolved, query, err)
	}
	if len(places) == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrLocationUnresolved, query)
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q: bad latitude", ErrLocationUnresolved, query)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q: bad longitude", ErrLocationUnresolved, query)
	}
	g.log.Debug("geocoded", zap.String("query", query), zap.Float64("lat", lat), zap.Float64("lon", lon))
	return Result{Coordinate: datastructure.NewCoordinate(lat, lon), DisplayName: places[0].DisplayName}, nil
}

type warmResult struct {
	query string
	err   error
}

// Warm resolves queries on a small worker pool so later lookups hit the caches. It returns the
// number of queries that resolved.
func (g *Geocoder) Warm(ctx context.Context, queries []string, workers int) int {
	if len(queries) == 0 {
		return 0
	}
	wp := concurrent.NewWorkerPool[string, warmResult](workers, len(queries))
	for _, q := range queries {
		wp.AddJob(q)
	}
	wp.Close()
	wp.Start(func(q string) warmResult {
		_, err := g.Resolve(ctx, q)
		return warmResult{query: q, err: err}
	})
	wp.Wait()

	resolved := 0
	for r := range wp.CollectResults() {
		if r.err != nil {
			g.log.Warn("geocode warm-up failed", zap.String("query", r.query), zap.Error(r.err))
			continue
		}
		resolved++
	}
	return resolved
}
