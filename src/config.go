package stacksh

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds configuration for a session
type Config struct {
	Debug             bool
	LogCategories     string // comma separated, see Logger.EnableCategories
	MaxRecursionDepth int
	ParallelLimit     int // default worker cap for parallel, parallel-map and race
	Stdin             io.Reader
	Stdout            io.Writer
	Stderr            io.Writer
	Environ           []string     // KEY=VALUE pairs; nil means os.Environ()
	Settings          *viper.Viper // named configuration values for `config` and plugins
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Debug:             false,
		MaxRecursionDepth: 1000,
		ParallelLimit:     runtime.NumCPU(),
		Stdin:             os.Stdin,
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
	}
}

// ConfigFromViper builds a Config from viper keys, falling back to defaults:
//
//	debug, log_categories, max_recursion_depth, parallel_limit
//
// The viper instance is kept as the session's named settings.
func ConfigFromViper(v *viper.Viper) *Config {
	cfg := DefaultConfig()
	if v == nil {
		return cfg
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	if v.IsSet("log_categories") {
		cfg.LogCategories = v.GetString("log_categories")
	}
	if v.IsSet("max_recursion_depth") {
		if depth := v.GetInt("max_recursion_depth"); depth > 0 {
			cfg.MaxRecursionDepth = depth
		}
	}
	if v.IsSet("parallel_limit") {
		if limit := v.GetInt("parallel_limit"); limit > 0 {
			cfg.ParallelLimit = limit
		}
	}
	cfg.Settings = v
	return cfg
}

// normalize fills zero fields with defaults
func (c *Config) normalize() *Config {
	out := *c
	def := DefaultConfig()
	if out.MaxRecursionDepth <= 0 {
		out.MaxRecursionDepth = def.MaxRecursionDepth
	}
	if out.ParallelLimit <= 0 {
		out.ParallelLimit = def.ParallelLimit
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.Settings == nil {
		out.Settings = viper.New()
	}
	return &out
}

// environFromPairs converts KEY=VALUE pairs into a map
func environFromPairs(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
