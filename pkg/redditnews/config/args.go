package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dapr/kit/logger"
	"github.com/spf13/pflag"
)

// CachingDefault marks a bare -c: cache for default_caching_duration.
const CachingDefault = -1

const cachingNoValue = "default"

// Args is the parsed command line.
type Args struct {
	Port int
	Root string

	// Caching is 0 when caching was not requested, CachingDefault for a bare
	// -c, or the requested max-age in seconds.
	Caching int

	// ConfigPath is the override INI file. A missing file is tolerated.
	ConfigPath string

	// DefaultConfigPath replaces the embedded defaults when set.
	DefaultConfigPath string

	// Logger carries --log-level and --log-as-json. LogLevelSet and
	// LogJSONSet report whether they were given explicitly.
	Logger      logger.Options
	LogLevelSet bool
	LogJSONSet  bool
}

// ParseArgs parses `<port> <directory> [-c[duration]]` plus the long flags.
func ParseArgs(argv []string) (Args, error) {
	a := Args{Logger: logger.DefaultOptions()}

	fs := pflag.NewFlagSet("reddit-news", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var caching string
	fs.StringVarP(&caching, "caching", "c", "", "Enable caching, optionally with a max-age in seconds")
	fs.Lookup("caching").NoOptDefVal = cachingNoValue
	fs.StringVar(&a.ConfigPath, "config", "config.ini", "Path to the override configuration file")
	fs.StringVar(&a.DefaultConfigPath, "default-config", "", "Path to the default configuration file (embedded copy when empty)")
	a.Logger.AttachCmdFlags(fs.StringVar, fs.BoolVar)

	if err := fs.Parse(normalizeCaching(argv)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	a.LogLevelSet = fs.Changed("log-level")
	a.LogJSONSet = fs.Changed("log-as-json")

	pos := fs.Args()
	if fs.Changed("caching") && caching == cachingNoValue && len(pos) == 3 {
		caching, pos = pos[2], pos[:2]
	}
	if len(pos) != 2 {
		return a, ErrUsage
	}

	port, err := strconv.Atoi(pos[0])
	if err != nil || port < 0 || port > 65535 {
		return a, fmt.Errorf("%w: invalid port %q", ErrUsage, pos[0])
	}
	a.Port = port
	a.Root = pos[1]

	if fs.Changed("caching") {
		if caching == cachingNoValue {
			a.Caching = CachingDefault
		} else {
			n, err := strconv.Atoi(caching)
			if err != nil || n <= 0 {
				return a, fmt.Errorf("%w: invalid caching duration %q", ErrUsage, caching)
			}
			a.Caching = n
		}
	}
	return a, nil
}

// normalizeCaching rewrites the compact -c<seconds> form, which pflag does not
// accept for a flag with an optional value.
func normalizeCaching(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		if len(arg) > 2 && strings.HasPrefix(arg, "-c") && arg[2] != '=' && arg[2] != '-' {
			arg = "--caching=" + arg[2:]
		}
		out = append(out, arg)
	}
	return out
}

// IsUsage reports whether err came from bad command line arguments.
func IsUsage(err error) bool {
	return errors.Is(err, ErrUsage)
}
