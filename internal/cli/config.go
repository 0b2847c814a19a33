package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/robert-malhotra/go-gctx/gctx"
	"github.com/robert-malhotra/go-gctx/internal/clue"
)

// ConfigFileName is the project config looked up in the working directory.
const ConfigFileName = ".gctx.json"

var (
	errConfigNotFound = errors.New("config file not found")
	errConfigInvalid  = errors.New("invalid config")
)

// Config holds the settings a config file may carry. Pointer fields
// distinguish "unset" from the zero value when layers are merged.
type Config struct {
	LogLevel         string `json:"log_level,omitempty"`
	LogFormat        string `json:"log_format,omitempty"`
	ConvertNulls     *bool  `json:"convert_nulls,omitempty"`
	Compression      string `json:"compression,omitempty"`
	CompressionLevel *int   `json:"compression_level,omitempty"`
	Shuffle          *bool  `json:"shuffle,omitempty"`
	Precision        *int   `json:"precision,omitempty"`
	ClueURL          string `json:"clue_url,omitempty"`
	ClueUserKey      string `json:"clue_user_key,omitempty"`
}

// ConfigSources lists the files that were merged, lowest precedence first.
type ConfigSources []string

func ptr[T any](v T) *T { return &v }

// DefaultConfig is the bottom layer of every configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "logfmt",
		ConvertNulls:     ptr(true),
		Compression:      string(gctx.CodecNone),
		CompressionLevel: ptr(0),
		Shuffle:          ptr(false),
		Precision:        ptr(-1),
		ClueURL:          clue.DefaultBaseURL,
	}
}

// globalConfigPath is $XDG_CONFIG_HOME/gctx/config.json, falling back to
// ~/.config. It is empty when neither can be determined.
func globalConfigPath(env map[string]string) string {
	if dir := env["XDG_CONFIG_HOME"]; dir != "" {
		return filepath.Join(dir, "gctx", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "gctx", "config.json")
	}
	return ""
}

// LoadConfig merges, highest precedence last: defaults, the global config,
// .gctx.json in workDir, then the explicit configPath, which must exist.
// Flag overrides are applied by the caller.
func LoadConfig(workDir, configPath string, env map[string]string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()
	var sources ConfigSources

	layers := []configLayer{
		{globalConfigPath(env), false},
		{filepath.Join(workDir, ConfigFileName), false},
	}
	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(workDir, configPath)
		}
		layers = append(layers, configLayer{configPath, true})
	}

	for _, l := range layers {
		if l.path == "" {
			continue
		}
		overlay, loaded, err := loadConfigFile(l.path, l.mustExist)
		if err != nil {
			return Config{}, nil, err
		}
		if loaded {
			cfg = mergeConfig(cfg, overlay)
			sources = append(sources, l.path)
		}
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, sources, nil
}

type configLayer struct {
	path      string
	mustExist bool
}

// loadConfigFile reads one layer. A missing file is an error only when
// mustExist is set.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}
		if os.IsNotExist(err) {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigNotFound, path)
		}
		return Config{}, false, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

// mergeConfig lays the set fields of overlay over base.
func mergeConfig(base, overlay Config) Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.LogLevel, overlay.LogLevel)
	set(&base.LogFormat, overlay.LogFormat)
	set(&base.Compression, overlay.Compression)
	set(&base.ClueURL, overlay.ClueURL)
	set(&base.ClueUserKey, overlay.ClueUserKey)
	if overlay.ConvertNulls != nil {
		base.ConvertNulls = overlay.ConvertNulls
	}
	if overlay.CompressionLevel != nil {
		base.CompressionLevel = overlay.CompressionLevel
	}
	if overlay.Shuffle != nil {
		base.Shuffle = overlay.Shuffle
	}
	if overlay.Precision != nil {
		base.Precision = overlay.Precision
	}
	return base
}

// validateConfig checks values that flags and files can both set.
func validateConfig(cfg Config) error {
	if _, ok := gctx.ParseCodec(cfg.Compression); !ok {
		return fmt.Errorf("%w: unknown compression %q", errConfigInvalid, cfg.Compression)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	if cfg.LogFormat != "logfmt" && cfg.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be logfmt or json, got %q", errConfigInvalid, cfg.LogFormat)
	}
	return nil
}

// FormatConfig renders cfg as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}
	return string(data), nil
}

const configHeader = "// gctx configuration. Comments and trailing commas are allowed.\n"

// WriteConfig atomically writes cfg to path as commented JSON.
func WriteConfig(path string, cfg Config) error {
	body, err := FormatConfig(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewBufferString(configHeader+body+"\n"))
}
