package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Paths holds the filesystem layout for the application.
type Paths struct {
	BaseDir    string `json:"base_dir" yaml:"base_dir"`       // Base directory for config files
	ConfigFile string `json:"config_file" yaml:"config_file"` // Path to the active config file
	DataDir    string `json:"data_dir" yaml:"data_dir"`       // Directory for spilled payload files
	DBFile     string `json:"db_file" yaml:"db_file"`         // Path to the item repository database
	LogDir     string `json:"log_dir" yaml:"log_dir"`         // Directory for log files
}

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `json:"log" yaml:"log"`
	Monitor   MonitorConfig   `json:"monitor" yaml:"monitor"`
	Capture   CaptureConfig   `json:"capture" yaml:"capture"`
	Limits    LimitsConfig    `json:"limits" yaml:"limits"`
	Retention RetentionConfig `json:"retention" yaml:"retention"`
	Enrich    EnrichConfig    `json:"enrich" yaml:"enrich"`

	SystemPaths Paths `json:"system_paths" yaml:"system_paths"`
}

// LogConfig holds logging-related configuration.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

// MonitorConfig holds the two timer intervals owned by the monitor.
type MonitorConfig struct {
	PollingInterval time.Duration `json:"polling_interval" yaml:"polling_interval"`
	SweepInterval   time.Duration `json:"sweep_interval" yaml:"sweep_interval"`
}

// CaptureConfig holds per-type enablement flags and the capture gates.
type CaptureConfig struct {
	EnableText     bool `json:"enable_text" yaml:"enable_text"`
	EnableURL      bool `json:"enable_url" yaml:"enable_url"`
	EnableImage    bool `json:"enable_image" yaml:"enable_image"`
	EnableFile     bool `json:"enable_file" yaml:"enable_file"`
	EnableRichText bool `json:"enable_richtext" yaml:"enable_richtext"`
	EnableUnknown  bool `json:"enable_unknown" yaml:"enable_unknown"`

	// ExcludedApps rejects captures whose foreground app name contains any
	// of these substrings (case-insensitive).
	ExcludedApps []string `json:"excluded_apps" yaml:"excluded_apps"`

	// SensitiveApps rejects text captures from known credential tools.
	SensitiveApps []string `json:"sensitive_apps" yaml:"sensitive_apps"`
}

// LimitsConfig holds absolute size ceilings and spillover thresholds, in bytes.
type LimitsConfig struct {
	MaxImageBytes int64 `json:"max_image_bytes" yaml:"max_image_bytes"`
	MaxOtherBytes int64 `json:"max_other_bytes" yaml:"max_other_bytes"`

	ImageSpillThreshold    int64 `json:"image_spill_threshold" yaml:"image_spill_threshold"`
	TextSpillThreshold     int64 `json:"text_spill_threshold" yaml:"text_spill_threshold"`
	RichTextSpillThreshold int64 `json:"richtext_spill_threshold" yaml:"richtext_spill_threshold"`
}

// RetentionConfig selects the retention policies enforced by the sweep.
type RetentionConfig struct {
	MaxItems int           `json:"max_items" yaml:"max_items"` // 0 disables the count cap
	MaxAge   time.Duration `json:"max_age" yaml:"max_age"`     // 0 disables the age policy
}

// EnrichConfig gates the optional ML image-analysis sidecar.
type EnrichConfig struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	SidecarPath string        `json:"sidecar_path" yaml:"sidecar_path"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultSensitiveApps is the curated list of password-manager and
// credential-tool names the sensitive-content gate matches against.
var DefaultSensitiveApps = []string{
	"1password",
	"bitwarden",
	"keepass",
	"keepassxc",
	"lastpass",
	"dashlane",
	"keychain access",
	"enpass",
	"nordpass",
	// "pass" alone would match any app with it as a substring (Compass,
	// Passport); list its GUI frontends explicitly instead.
	"gopass",
	"passbolt",
	"qtpass",
}

// GetPaths returns the platform-specific filesystem layout, creating the
// directories if needed.
func GetPaths() (*Paths, error) {
	baseDir := os.Getenv("CLIPKEEP_CONFIG_DIR")
	if baseDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		switch runtime.GOOS {
		case "windows", "darwin":
			baseDir = filepath.Join(configDir, "Clipkeep")
		default:
			baseDir = filepath.Join(configDir, "clipkeep")
		}
	}

	dataDir := os.Getenv("CLIPKEEP_DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		switch runtime.GOOS {
		case "windows":
			appData, err := os.UserConfigDir()
			if err == nil {
				dataDir = filepath.Join(appData, "Clipkeep", "Data")
			} else {
				dataDir = filepath.Join(homeDir, "AppData", "Local", "Clipkeep")
			}
		case "darwin":
			dataDir = filepath.Join(homeDir, "Library", "Application Support", "Clipkeep")
		default:
			if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
				dataDir = filepath.Join(xdgDataHome, "clipkeep")
			} else {
				dataDir = filepath.Join(homeDir, ".clipkeep")
			}
		}
	}

	paths := &Paths{
		BaseDir:    baseDir,
		ConfigFile: filepath.Join(baseDir, "config.yaml"),
		DataDir:    filepath.Join(dataDir, "spill"),
		DBFile:     filepath.Join(dataDir, "clipkeep.db"),
		LogDir:     filepath.Join(dataDir, "logs"),
	}

	for _, dir := range []string{paths.BaseDir, paths.DataDir, paths.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	paths, _ := GetPaths() // Ignore error, overridable via env
	if paths == nil {
		paths = &Paths{}
	}

	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Monitor: MonitorConfig{
			PollingInterval: 500 * time.Millisecond,
			SweepInterval:   5 * time.Minute,
		},
		Capture: CaptureConfig{
			EnableText:     true,
			EnableURL:      true,
			EnableImage:    true,
			EnableFile:     true,
			EnableRichText: true,
			EnableUnknown:  true,
			ExcludedApps:   []string{},
			SensitiveApps:  DefaultSensitiveApps,
		},
		Limits: LimitsConfig{
			MaxImageBytes:          256 * 1024 * 1024,
			MaxOtherBytes:          512 * 1024 * 1024,
			ImageSpillThreshold:    5 * 1024 * 1024,
			TextSpillThreshold:     1 * 1024 * 1024,
			RichTextSpillThreshold: 1 * 1024 * 1024,
		},
		Retention: RetentionConfig{
			MaxItems: 500,
			MaxAge:   0, // age policy off by default
		},
		Enrich: EnrichConfig{
			Enabled:     false,
			SidecarPath: "",
			Timeout:     60 * time.Second,
		},
		SystemPaths: *paths,
	}
}

// Load loads the configuration from the specified file or creates the
// default if it does not exist.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		paths, err := GetPaths()
		if err != nil {
			return nil, err
		}
		configPath = paths.ConfigFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(cfg)

	return cfg, nil
}

// Save saves the configuration to the specified file.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// overrideFromEnv overrides configuration values from environment variables.
func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("CLIPKEEP_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("CLIPKEEP_DATA_DIR"); val != "" {
		cfg.SystemPaths.DataDir = filepath.Join(val, "spill")
		cfg.SystemPaths.DBFile = filepath.Join(val, "clipkeep.db")
	}
	if val := os.Getenv("CLIPKEEP_POLLING_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Monitor.PollingInterval = d
		}
	}
	if val := os.Getenv("CLIPKEEP_SWEEP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Monitor.SweepInterval = d
		}
	}
	if val := os.Getenv("CLIPKEEP_MAX_ITEMS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Retention.MaxItems = n
		}
	}
	if val := os.Getenv("CLIPKEEP_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retention.MaxAge = d
		}
	}
	if val := os.Getenv("CLIPKEEP_ENRICH_ENABLED"); val != "" {
		cfg.Enrich.Enabled = val == "true"
	}
}
