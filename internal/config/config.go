// -- internal/config/config.go --
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the single immutable run configuration. It is built once at
// startup and passed explicitly into every component; nothing reads
// process-wide state after Load returns.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Fill      FillConfig      `mapstructure:"fill" yaml:"fill"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Profile   ProfileConfig   `mapstructure:"profile" yaml:"profile"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // console or json
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	FilePath    string `mapstructure:"file_path" yaml:"file_path"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// BrowserConfig controls the Chrome process and session behavior.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
}

// FillConfig names the settle waits of the fill executor. These compensate
// for asynchronous widget rendering in the target page; they are
// best-effort waits, not correctness guarantees.
type FillConfig struct {
	ComboOpenPause   time.Duration `mapstructure:"combo_open_pause" yaml:"combo_open_pause"`
	ComboKeyDelay    time.Duration `mapstructure:"combo_key_delay" yaml:"combo_key_delay"`
	ComboSettleWait  time.Duration `mapstructure:"combo_settle_wait" yaml:"combo_settle_wait"`
	UploadSettleWait time.Duration `mapstructure:"upload_settle_wait" yaml:"upload_settle_wait"`
	SubmitEnabled    bool          `mapstructure:"submit_enabled" yaml:"submit_enabled"`
}

// DiscoveryConfig bounds the pre-fill page preparation.
type DiscoveryConfig struct {
	MaxApplyClicks  int           `mapstructure:"max_apply_clicks" yaml:"max_apply_clicks"`
	ComboProbeWait  time.Duration `mapstructure:"combo_probe_wait" yaml:"combo_probe_wait"`
	MaxComboOptions int           `mapstructure:"max_combo_options" yaml:"max_combo_options"`
}

// LLMConfig configures the inference collaborator.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	Model          string        `mapstructure:"model" yaml:"model"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxRetryWait   time.Duration `mapstructure:"max_retry_wait" yaml:"max_retry_wait"`
	RequestsPerMin int           `mapstructure:"requests_per_min" yaml:"requests_per_min"`
}

// ProfileConfig locates the candidate's data on disk.
type ProfileConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	ResumePath string `mapstructure:"resume_path" yaml:"resume_path"`
	ResumeText string `mapstructure:"resume_text" yaml:"resume_text"`
}

// ArtifactsConfig locates pipeline inputs and outputs.
type ArtifactsConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

const EnvPrefix = "FORMPILOT"

// SetDefaults registers every default on the given viper instance. Waits
// mirror the timings the fill strategies were tuned against.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "formpilot")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", 90*time.Second)
	v.SetDefault("browser.post_load_wait", 1500*time.Millisecond)
	v.SetDefault("browser.operation_timeout", 10*time.Second)

	v.SetDefault("fill.combo_open_pause", 150*time.Millisecond)
	v.SetDefault("fill.combo_key_delay", 160*time.Millisecond)
	v.SetDefault("fill.combo_settle_wait", 600*time.Millisecond)
	v.SetDefault("fill.upload_settle_wait", 800*time.Millisecond)
	v.SetDefault("fill.submit_enabled", false)

	v.SetDefault("discovery.max_apply_clicks", 3)
	v.SetDefault("discovery.combo_probe_wait", 200*time.Millisecond)
	v.SetDefault("discovery.max_combo_options", 50)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.request_timeout", 60*time.Second)
	v.SetDefault("llm.max_retry_wait", 2*time.Minute)
	v.SetDefault("llm.requests_per_min", 30)

	v.SetDefault("artifacts.dir", "artifacts")
	v.SetDefault("artifacts.cache_path", "artifacts/answers.db")
}

// Load reads the config file (explicit path, or formpilot.yaml in the
// working directory), layers FORMPILOT_* environment variables on top,
// and unmarshals into a Config. A missing file is not an error; defaults
// and environment carry the run.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("formpilot")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandPaths resolves ~ in user-supplied file locations.
func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Profile.Path,
		&c.Profile.ResumePath,
		&c.Artifacts.Dir,
		&c.Artifacts.CachePath,
		&c.Logger.FilePath,
	} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = filepath.Clean(expanded)
	}
	return nil
}
