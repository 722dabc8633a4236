package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PATHSYNC_"

type Config struct {
	Server     ServerOptions     `yaml:"server"`
	Network    NetworkOptions    `yaml:"network"`
	Simulation SimulationOptions `yaml:"simulation"`
	Engine     EngineOptions     `yaml:"engine"`
	Geocoder   GeocoderOptions   `yaml:"geocoder"`
	Log        LogOptions        `yaml:"log"`
}

type ServerOptions struct {
	Addr            string        `yaml:"addr"`
	StartupDelay    time.Duration `yaml:"startup-delay"`
	// ShutdownTimeout bounds both the HTTP drain and the wait for the updater on exit.
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	CORSOrigins     []string      `yaml:"cors-origins"`
}

type NetworkOptions struct {
	File         string `yaml:"file"`
	ShowProgress bool   `yaml:"show-progress"`
}

type SimulationOptions struct {
	Binary     string        `yaml:"binary"`
	ConfigFile string        `yaml:"config-file"`
	Port       int           `yaml:"port"`
	Addr       string        `yaml:"addr"`
	End        float64       `yaml:"end"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry-delay"`
}

type EngineOptions struct {
	ReconcileInterval float64 `yaml:"reconcile-interval"`
	HaltingThreshold  int     `yaml:"halting-threshold"`
	DurationThreshold float64 `yaml:"duration-threshold"`
	ClampSpeed        float64 `yaml:"clamp-speed"`
	SearchRadius      float64 `yaml:"search-radius"`
}

type GeocoderOptions struct {
	BaseURL   string        `yaml:"base-url"`
	Region    string        `yaml:"region"`
	UserAgent string        `yaml:"user-agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	CacheSize int           `yaml:"cache-size"`
	CacheDir  string        `yaml:"cache-dir"`
	Warm      []string      `yaml:"warm"`
}

type LogOptions struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	TailSize    int    `yaml:"tail-size"`
}

func Default() Config {
	return Config{
		Server: ServerOptions{
			Addr:            ":5000",
			StartupDelay:    3 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"https://*", "http://*"},
		},
		Network: NetworkOptions{
			File:         "simulation/map.net.xml",
			ShowProgress: true,
		},
		Simulation: SimulationOptions{
			Binary:     "sumo",
			ConfigFile: "simulation/map.sumocfg",
			Port:       8813,
			End:        3600,
			Retries:    20,
			RetryDelay: 500 * time.Millisecond,
		},
		Engine: EngineOptions{
			ReconcileInterval: 10,
			HaltingThreshold:  8,
			DurationThreshold: 60,
			ClampSpeed:        0.1,
			SearchRadius:      200,
		},
		Geocoder: GeocoderOptions{
			BaseURL:   "https://nominatim.openstreetmap.org",
			Region:    "Mysuru, Karnataka",
			UserAgent: "pathsync-router",
			Timeout:   10 * time.Second,
			Retries:   2,
			CacheSize: 1024,
			CacheDir:  "./data/geocode",
		},
		Log: LogOptions{
			Level:    "info",
			TailSize: 200,
		},
	}
}

// Load reads defaults, then the YAML file at path (if it exists), then .env and PATHSYNC_*
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.Simulation.Binary = resolveSumoBinary(cfg.Simulation.Binary, os.Getenv("SUMO_HOME"))
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	num := func(name string, dst *float64) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s%s: %w", envPrefix, name, err)
				}
				return
			}
			*dst = f
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s%s: %w", envPrefix, name, err)
				}
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s%s: %w", envPrefix, name, err)
				}
				return
			}
			*dst = d
		}
	}

	str("ADDR", &cfg.Server.Addr)
	str("NET_FILE", &cfg.Network.File)
	str("SUMO_BINARY", &cfg.Simulation.Binary)
	str("SUMO_CONFIG", &cfg.Simulation.ConfigFile)
	str("SUMO_ADDR", &cfg.Simulation.Addr)
	integer("SUMO_PORT", &cfg.Simulation.Port)
	num("SUMO_END", &cfg.Simulation.End)
	num("RECONCILE_INTERVAL", &cfg.Engine.ReconcileInterval)
	integer("HALTING_THRESHOLD", &cfg.Engine.HaltingThreshold)
	num("DURATION_THRESHOLD", &cfg.Engine.DurationThreshold)
	num("SEARCH_RADIUS", &cfg.Engine.SearchRadius)
	str("GEOCODER_URL", &cfg.Geocoder.BaseURL)
	str("GEOCODER_REGION", &cfg.Geocoder.Region)
	str("CACHE_DIR", &cfg.Geocoder.CacheDir)
	str("LOG_LEVEL", &cfg.Log.Level)
	duration("STARTUP_DELAY", &cfg.Server.StartupDelay)
	duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	return firstErr
}

// resolveSumoBinary looks a bare binary name up under $SUMO_HOME/bin when SUMO_HOME is set.
func resolveSumoBinary(binary, sumoHome string) string {
	if sumoHome == "" || strings.ContainsRune(binary, os.PathSeparator) {
		return binary
	}
	candidate := filepath.Join(sumoHome, "bin", binary)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return binary
}

func (c Config) Validate() error {
	switch {
	case c.Network.File == "":
		return errors.New("network.file is required")
	case c.Engine.ReconcileInterval <= 0:
		return errors.New("engine.reconcile-interval must be positive")
	case c.Engine.DurationThreshold <= 0:
		return errors.New("engine.duration-threshold must be positive")
	case c.Engine.HaltingThreshold < 0:
		return errors.New("engine.halting-threshold must not be negative")
	case c.Engine.ClampSpeed <= 0:
		return errors.New("engine.clamp-speed must be positive")
	case c.Engine.SearchRadius <= 0:
		return errors.New("engine.search-radius must be positive")
	case c.Server.ShutdownTimeout <= 0:
		return errors.New("server.shutdown-timeout must be positive")
	case c.Simulation.Addr == "" && c.Simulation.ConfigFile == "":
		return errors.New("simulation.config-file or simulation.addr is required")
	}
	return nil
}
