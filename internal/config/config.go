// Package config loads fanout configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Command-line flags (applied by the caller)
//  2. Environment variables (FANOUT_*)
//  3. Config file
//  4. Built-in defaults
//
// Config file search order:
//  1. .fanout.yaml in current directory
//  2. ~/.config/fanout/config.yaml
//
// The bootstrap re-invocation forwards only the command line. When a tmux
// server already exists, the re-invoked process resolves env vars and the
// cwd config file in the session shell's environment and working directory,
// which may differ from the caller's. Settings that must survive the
// bootstrap should be passed as flags or put in the home config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timvw/fanout/internal/logname"
	"github.com/timvw/fanout/internal/template"
)

// Config holds all fanout configuration.
type Config struct {
	// Command is the command template sent to each pane.
	Command string `yaml:"command"`
	// ReplaceToken is the placeholder replaced with each target.
	ReplaceToken string `yaml:"replace_token"`

	// Socket is an alternate tmux control socket path (tmux -S).
	Socket string `yaml:"socket"`

	// Log capture
	Log       bool   `yaml:"log"`
	LogDir    string `yaml:"log_dir"`
	LogFormat string `yaml:"log_format"`

	// Detach leaves the bootstrapped session detached instead of attaching.
	Detach bool `yaml:"detach"`

	// DryRun prints the tmux commands instead of executing them.
	DryRun bool `yaml:"dry_run"`

	// Refresh is the watch view poll interval (Go duration string, e.g. "2s").
	Refresh string `yaml:"refresh"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// RefreshDuration is parsed from Refresh after loading.
	RefreshDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Command:      template.DefaultCommand,
		ReplaceToken: template.DefaultToken,
		LogDir:       "~/.fanout/logs",
		LogFormat:    logname.DefaultFormat,
		Refresh:      "2s",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	var err error
	cfg.RefreshDuration, err = time.ParseDuration(cfg.Refresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval %q: %w", cfg.Refresh, err)
	}

	cfg.LogDir, err = expandHome(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("resolving log dir: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".fanout.yaml"); err == nil {
		return ".fanout.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "fanout", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Command != "" {
		cfg.Command = file.Command
	}
	if file.ReplaceToken != "" {
		cfg.ReplaceToken = file.ReplaceToken
	}
	if file.Socket != "" {
		cfg.Socket = file.Socket
	}
	if file.Log {
		cfg.Log = file.Log
	}
	if file.LogDir != "" {
		cfg.LogDir = file.LogDir
	}
	if file.LogFormat != "" {
		cfg.LogFormat = file.LogFormat
	}
	if file.Detach {
		cfg.Detach = file.Detach
	}
	if file.DryRun {
		cfg.DryRun = file.DryRun
	}
	if file.Refresh != "" {
		cfg.Refresh = file.Refresh
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("FANOUT_COMMAND"); v != "" {
		cfg.Command = v
	}
	if v := os.Getenv("FANOUT_REPLACE_TOKEN"); v != "" {
		cfg.ReplaceToken = v
	}
	if v := os.Getenv("FANOUT_SOCKET"); v != "" {
		cfg.Socket = v
	}
	if v := os.Getenv("FANOUT_LOG"); v == "true" || v == "1" {
		cfg.Log = true
	}
	if v := os.Getenv("FANOUT_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("FANOUT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("FANOUT_DETACH"); v == "true" || v == "1" {
		cfg.Detach = true
	}
	if v := os.Getenv("FANOUT_REFRESH"); v != "" {
		cfg.Refresh = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) (string, error) {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
