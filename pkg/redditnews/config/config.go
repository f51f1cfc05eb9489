// Package config loads the immutable server configuration from the packaged
// default INI file, an optional override file and the command line.
package config

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Defaults is the packaged default configuration.
//
//go:embed default-config.ini
var Defaults []byte

// Config holds every tunable of the server. It is built once at startup and
// passed explicitly to each component; nothing mutates it afterwards.
type Config struct {
	// Port is the TCP port the listener binds on 0.0.0.0.
	Port int

	// Root is the served directory.
	Root string

	// Caching is the max-age advertised in Cache-Control.
	// Zero disables caching headers, ETags and conditional requests.
	Caching time.Duration

	// Backlog is the listen backlog.
	Backlog int

	// BlockSize is the request read chunk size in bytes.
	BlockSize int

	// MaxThreads selects the dispatch mode: 0 handles connections on the
	// reactor goroutine, 1 runs one reader and one writer, N partitions
	// every ready set over N readers and N writers.
	MaxThreads int

	// BlockOnRead makes the reactor wait for read batches before polling again.
	BlockOnRead bool

	// SelectTimeout bounds each poll. Negative waits forever.
	SelectTimeout time.Duration

	// ReadTimeout bounds the wait for continuation chunks of one request.
	ReadTimeout time.Duration

	// CacheEntries is the capacity of the ETag cache.
	CacheEntries int

	// CompressTypePattern is matched in full, case-insensitively, against
	// the MIME type of a response to decide whether it may be compressed.
	CompressTypePattern string

	// MinimumCompressSize is the content length a response must exceed
	// before compression is attempted.
	MinimumCompressSize int

	// ExtendedEncodings adds br and zstd to the negotiable encodings.
	ExtendedEncodings bool

	// AdditionalHeaders are appended verbatim to every response.
	AdditionalHeaders []string

	// ClientIDHeader names the request header identifying a client.
	// Empty means the peer address is used.
	ClientIDHeader string

	// Blacklist holds peer IPs that are refused on accept.
	Blacklist []string

	// BlacklistResponse is written raw to refused peers. Nil closes silently.
	BlacklistResponse []byte

	EnablePost   bool
	EnableRanges bool
	Enable418    bool
	TeapotImage  string
	EnableCows   bool
	MooPattern   string
	CowsOK       bool

	// MetricsPort serves /metrics when positive.
	MetricsPort int

	Log LogConfig
}

// LogConfig configures the logging sinks.
type LogConfig struct {
	Level      string
	JSON       bool
	Console    bool
	Stream     string
	Disk       bool
	Directory  string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultReadTimeout bounds how long a reader waits for the rest of a request.
const DefaultReadTimeout = 5 * time.Second

const none = "None"

// logLevels maps accepted level names onto the logger's levels.
var logLevels = map[string]string{
	"verbose":  "debug",
	"debug":    "debug",
	"info":     "info",
	"warn":     "warn",
	"warning":  "warn",
	"error":    "error",
	"critical": "fatal",
	"fatal":    "fatal",
}

var loadOptions = ini.LoadOptions{
	Loose:               true,
	IgnoreInlineComment: true,
}

// Load reads the defaults, overlays the file at overridePath when it exists
// and applies the command line arguments.
func Load(defaults []byte, overridePath string, args Args) (*Config, error) {
	sources := []interface{}{}
	if overridePath != "" {
		sources = append(sources, overridePath)
	}
	f, err := ini.LoadSources(loadOptions, defaults, sources...)
	if err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	return fromSection(f.Section(ini.DefaultSection), args)
}

type decoder struct {
	sec *ini.Section
	err error
}

func (d *decoder) fail(key string, err error) {
	if d.err == nil {
		d.err = &KeyError{Key: key, Value: d.sec.Key(key).String(), Err: err}
	}
}

func (d *decoder) str(key string) string {
	return strings.TrimSpace(d.sec.Key(key).String())
}

func (d *decoder) optional(key string) string {
	v := d.str(key)
	if v == none {
		return ""
	}
	return v
}

func (d *decoder) int(key string, min int) int {
	v, err := d.sec.Key(key).Int()
	if err != nil {
		d.fail(key, err)
		return 0
	}
	if v < min {
		d.fail(key, fmt.Errorf("must be at least %d", min))
	}
	return v
}

func (d *decoder) bool(key string) bool {
	v, err := d.sec.Key(key).Bool()
	if err != nil {
		d.fail(key, err)
	}
	return v
}

func (d *decoder) list(key string) []string {
	var out []string
	for _, s := range strings.Split(d.str(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) seconds(key string) time.Duration {
	v := d.str(key)
	if v == none {
		return -1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		d.fail(key, err)
		return 0
	}
	if f < 0 {
		return -1
	}
	return time.Duration(f * float64(time.Second))
}

func fromSection(sec *ini.Section, args Args) (*Config, error) {
	d := &decoder{sec: sec}
	cfg := &Config{
		Port:                args.Port,
		Root:                args.Root,
		Backlog:             d.int("backlog", 1),
		BlockSize:           d.int("HTTP_blocksize", 1),
		MaxThreads:          d.int("max_threads", 0),
		BlockOnRead:         d.bool("block_on_read"),
		SelectTimeout:       d.seconds("select_timeout"),
		ReadTimeout:         DefaultReadTimeout,
		CacheEntries:        d.int("cache_entries", 1),
		CompressTypePattern: d.str("compress_type_regex"),
		MinimumCompressSize: d.int("minimum_compress_size", 0),
		ExtendedEncodings:   d.bool("enable_extended_encodings"),
		AdditionalHeaders:   d.list("additional_headers"),
		ClientIDHeader:      d.optional("client_identification_header"),
		Blacklist:           d.list("connection_blacklist"),
		EnablePost:          d.bool("enable_post"),
		EnableRanges:        d.bool("enable_range_requests"),
		Enable418:           d.bool("enable_418"),
		TeapotImage:         d.optional("teapot_image"),
		EnableCows:          d.bool("enable_cows"),
		MooPattern:          d.str("moo_regex"),
		CowsOK:              d.bool("cows_ok"),
		MetricsPort:         d.int("metrics_port", 0),
		Log: LogConfig{
			Level:      d.str("loglevel"),
			JSON:       d.bool("log_as_json"),
			Console:    d.bool("log_to_console"),
			Stream:     d.str("logstream"),
			Disk:       d.bool("log_to_disk"),
			Directory:  d.str("logdirectory"),
			File:       d.str("logfile"),
			MaxSizeMB:  d.int("log_max_size_mb", 1),
			MaxBackups: d.int("log_backup_count", 0),
			MaxAgeDays: d.int("log_max_age_days", 0),
		},
	}
	if args.LogLevelSet {
		cfg.Log.Level = args.Logger.OutputLevel
	}
	if args.LogJSONSet {
		cfg.Log.JSON = args.Logger.JSONFormatEnabled
	}
	if lvl, ok := logLevels[strings.ToLower(cfg.Log.Level)]; ok {
		cfg.Log.Level = lvl
	} else {
		d.fail("loglevel", fmt.Errorf("unknown level"))
	}
	if cfg.Log.Stream != "stdout" && cfg.Log.Stream != "stderr" {
		d.fail("logstream", fmt.Errorf("must be stdout or stderr"))
	}

	if r := d.optional("blacklist_response"); r != "" {
		cfg.BlacklistResponse = []byte(unescapeCRLF(r))
	}

	switch {
	case args.Caching > 0:
		cfg.Caching = time.Duration(args.Caching) * time.Second
	case args.Caching == CachingDefault || d.bool("force_caching"):
		cfg.Caching = time.Duration(d.int("default_caching_duration", 0)) * time.Second
	}

	if d.err != nil {
		return nil, d.err
	}
	return cfg, nil
}

// unescapeCRLF turns the literal \r and \n sequences an INI value can carry
// into the bytes they name.
func unescapeCRLF(s string) string {
	return strings.NewReplacer(`\r`, "\r", `\n`, "\n").Replace(s)
}

// CachingEnabled reports whether caching headers and conditional requests apply.
func (c *Config) CachingEnabled() bool {
	return c.Caching > 0
}
