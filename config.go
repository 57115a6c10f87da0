package thailint

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config is the validated configuration the linter consumes. Loading and
// schema mechanics live here; the core treats the result as opaque.
type Config struct {
	// Ignore holds repo-level gitignore-style patterns, relative to the
	// project root.
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
	// IgnoreFile names the repo-ignore file read from the project root.
	IgnoreFile string `yaml:"ignore_file" mapstructure:"ignore_file"`
	// Rules holds per-rule settings keyed by rule id.
	Rules map[string]RuleConfig `yaml:"rules" mapstructure:"rules"`
	// DRY configures the duplicate-code detector.
	DRY DryConfig `yaml:"dry" mapstructure:"dry"`
	// Workers is the worker pool size for the check phase. Zero means
	// one worker per CPU.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// FileTimeout bounds the analysis of a single file. A file
	// exceeding it is treated as a parse failure, never blocks the run.
	FileTimeout time.Duration `yaml:"file_timeout" mapstructure:"file_timeout"`
}

// RuleConfig holds per-rule settings.
type RuleConfig struct {
	Enabled  *bool          `yaml:"enabled" mapstructure:"enabled"`
	Severity string         `yaml:"severity" mapstructure:"severity"`
	Options  map[string]any `yaml:"options" mapstructure:"options"`
}

// DryConfig configures the duplicate-code detector.
type DryConfig struct {
	// MinDuplicateLines is the sliding window length in logical lines.
	MinDuplicateLines int `yaml:"min_duplicate_lines" mapstructure:"min_duplicate_lines"`
	// CacheEnabled turns the persistent token-window cache on.
	CacheEnabled bool `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	// CachePath is the cache directory, relative to the project root.
	CachePath string `yaml:"cache_path" mapstructure:"cache_path"`
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() Config {
	return Config{
		IgnoreFile: ".thailintignore",
		Rules:      map[string]RuleConfig{},
		DRY: DryConfig{
			MinDuplicateLines: 4,
			CachePath:         ".thailint-cache",
		},
		FileTimeout: 10 * time.Second,
	}
}

// LoadConfig reads a YAML config file via viper. cfgFile may be a full
// path; otherwise the usual search paths are tried. A missing config
// file falls back to defaults; a malformed one is a fatal
// configuration error raised before any file is processed.
func LoadConfig(fs afero.Fs, path string, cfgFile string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yml")

	// Check if cfgFile is a full path to a file
	fileInfo, statErr := fs.Stat(cfgFile)
	if statErr == nil && !fileInfo.IsDir() {
		v.SetConfigFile(cfgFile)
	} else {
		if cfgFile != "" {
			if strings.HasSuffix(cfgFile, ".yml") || strings.HasSuffix(cfgFile, ".yaml") {
				v.SetConfigFile(cfgFile)
			} else {
				v.SetConfigName(cfgFile)
			}
		} else {
			v.SetConfigName(".thailint")
		}

		v.AddConfigPath(path)
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file is fine; run with defaults
			return DefaultConfig(), nil
		}
		return Config{}, NewConfigError("failed loading config file", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, NewConfigError("failed unmarshaling config file", err)
	}

	if config.DRY.MinDuplicateLines < 2 {
		return Config{}, NewConfigError("dry.min_duplicate_lines must be at least 2", nil)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ignore", []string{})
	v.SetDefault("ignore_file", ".thailintignore")
	v.SetDefault("rules", map[string]RuleConfig{})
	v.SetDefault("dry.min_duplicate_lines", 4)
	v.SetDefault("dry.cache_enabled", false)
	v.SetDefault("dry.cache_path", ".thailint-cache")
	v.SetDefault("workers", 0)
	v.SetDefault("file_timeout", 10*time.Second)
}

// RuleEnabled reports whether a rule is enabled. Rules default to on.
func (c Config) RuleEnabled(id string) bool {
	rc, ok := c.Rules[id]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// RuleSeverity returns the configured severity for a rule, or def.
func (c Config) RuleSeverity(id string, def Severity) Severity {
	rc, ok := c.Rules[id]
	if !ok || rc.Severity == "" {
		return def
	}
	return ParseSeverity(rc.Severity)
}

// RuleIntOption returns an integer rule option, or def when unset.
func (c Config) RuleIntOption(id, key string, def int) int {
	rc, ok := c.Rules[id]
	if !ok {
		return def
	}
	switch val := rc.Options[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return def
	}
}

// RuleNumberSetOption returns a numeric-set rule option keyed by the
// number's canonical string form, or def when unset.
func (c Config) RuleNumberSetOption(id, key string, def map[string]bool) map[string]bool {
	rc, ok := c.Rules[id]
	if !ok {
		return def
	}
	raw, ok := rc.Options[key].([]any)
	if !ok {
		return def
	}
	set := make(map[string]bool, len(raw))
	for _, item := range raw {
		set[canonicalNumber(item)] = true
	}
	return set
}
