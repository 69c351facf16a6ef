package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./listings.db" description:"Path to the SQLite database file"`

	// Watch configuration
	ConfigDir string `long:"config-dir" env:"CONFIG_DIR" default:"./watch" description:"Directory containing keyword and channel configuration files"`

	// Scheduling
	CycleInterval      int `long:"cycle-interval" env:"CYCLE_INTERVAL" default:"300" description:"Seconds between monitoring cycles"`
	KeywordConcurrency int `long:"keyword-concurrency" env:"KEYWORD_CONCURRENCY" default:"2" description:"Number of keyword searches processed concurrently"`
	PlatformPause      int `long:"platform-pause" env:"PLATFORM_PAUSE" default:"2" description:"Seconds to pause between platform calls within one keyword"`
	KeywordPause       int `long:"keyword-pause" env:"KEYWORD_PAUSE" default:"2" description:"Seconds to pause between keywords"`
	RequestTimeout     int `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Timeout in seconds for a single network call"`

	// HTTP API
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"joonggo-radar/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Seoul" description:"Timezone for timestamps (e.g., Asia/Seoul, UTC)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		ConfigDir:          raw.ConfigDir,
		CycleInterval:      raw.CycleInterval,
		KeywordConcurrency: raw.KeywordConcurrency,
		PlatformPause:      raw.PlatformPause,
		KeywordPause:       raw.KeywordPause,
		RequestTimeout:     raw.RequestTimeout,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
