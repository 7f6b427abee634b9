// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// STEADYHAND_RUNNER_PARALLELISM.
const EnvPrefix = "STEADYHAND"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Wait() WaitConfig
	Runner() RunnerConfig
	Browser() BrowserConfig
	Reporting() ReportingConfig
	Metrics() MetricsConfig

	// Runner Setters
	SetRunnerParallelism(int)
	SetRunnerRetryBudget(int)
	SetRunnerUniqueID(string)

	// Wait Setters
	SetWaitTimeoutSeconds(int)

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserBaseURL(string)

	// Output Setters
	SetJUnitOutput(string)
	SetMetricsListenAddress(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	WaitCfg      WaitConfig      `mapstructure:"wait" yaml:"wait"`
	RunnerCfg    RunnerConfig    `mapstructure:"runner" yaml:"runner"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	ReportingCfg ReportingConfig `mapstructure:"reporting" yaml:"reporting"`
	MetricsCfg   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Wait() WaitConfig           { return c.WaitCfg }
func (c *Config) Runner() RunnerConfig       { return c.RunnerCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Reporting() ReportingConfig { return c.ReportingCfg }
func (c *Config) Metrics() MetricsConfig     { return c.MetricsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetRunnerParallelism(n int)   { c.RunnerCfg.Parallelism = n }
func (c *Config) SetRunnerRetryBudget(n int)   { c.RunnerCfg.RetryBudget = n }
func (c *Config) SetRunnerUniqueID(id string)  { c.RunnerCfg.UniqueID = id }
func (c *Config) SetWaitTimeoutSeconds(s int)  { c.WaitCfg.TimeoutSeconds = s }
func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserBaseURL(u string)   { c.BrowserCfg.BaseURL = u }
func (c *Config) SetJUnitOutput(path string)   { c.ReportingCfg.JUnit.Output = path }
func (c *Config) SetMetricsListenAddress(a string) {
	c.MetricsCfg.ListenAddress = a
}

// LoggerConfig holds the logger configuration.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// WaitConfig tunes the element waits.
type WaitConfig struct {
	// TimeoutSeconds is the default deadline for element waits.
	TimeoutSeconds    int           `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	StabilityInterval time.Duration `mapstructure:"stability_interval" yaml:"stability_interval"`
}

// RunnerConfig controls suite execution.
type RunnerConfig struct {
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism"`
	RetryBudget int `mapstructure:"retry_budget" yaml:"retry_budget"`
	// UniqueID seeds the run id; a random one is generated when empty.
	UniqueID string `mapstructure:"unique_id" yaml:"unique_id"`
}

// BrowserConfig configures the automation sessions opened by suites.
type BrowserConfig struct {
	Headless     bool     `mapstructure:"headless" yaml:"headless"`
	RemoteURL    string   `mapstructure:"remote_url" yaml:"remote_url"`
	ExecPath     string   `mapstructure:"exec_path" yaml:"exec_path"`
	DisableGPU   bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args         []string `mapstructure:"args" yaml:"args"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	// BaseURL is the application under test.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// ReportingConfig groups the outcome collaborators.
type ReportingConfig struct {
	Timeout   time.Duration   `mapstructure:"timeout" yaml:"timeout"`
	Buildfarm BuildfarmConfig `mapstructure:"buildfarm" yaml:"buildfarm"`
	Chat      ChatConfig      `mapstructure:"chat" yaml:"chat"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	JUnit     JUnitConfig     `mapstructure:"junit" yaml:"junit"`
}

// BuildfarmConfig holds the credentials for the remote session service.
type BuildfarmConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	URL       string `mapstructure:"url" yaml:"url"`
	Username  string `mapstructure:"username" yaml:"username"`
	AccessKey string `mapstructure:"access_key" yaml:"-"`
}

// ChatConfig configures the webhook notifier.
type ChatConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL string `mapstructure:"webhook_url" yaml:"-"`
	Channel    string `mapstructure:"channel" yaml:"channel"`
	// RateLimit is the number of messages per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
	// OnlyFailures suppresses pass notifications.
	OnlyFailures bool `mapstructure:"only_failures" yaml:"only_failures"`
}

// DatabaseConfig holds the outcome history database settings.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"-"`
}

// JUnitConfig sets where the JUnit XML report goes; empty disables it.
type JUnitConfig struct {
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig exposes the Prometheus endpoint; empty disables it.
type MetricsConfig struct {
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
}

// NewDefaultConfig creates a new configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "steadyhand")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Wait --
	v.SetDefault("wait.timeout_seconds", 30)
	v.SetDefault("wait.poll_interval", "250ms")
	v.SetDefault("wait.stability_interval", "500ms")

	// -- Runner --
	v.SetDefault("runner.parallelism", 1)
	v.SetDefault("runner.retry_budget", 0)
	v.SetDefault("runner.unique_id", "")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 1024)
	v.SetDefault("browser.base_url", "")

	// -- Reporting --
	v.SetDefault("reporting.timeout", "15s")
	v.SetDefault("reporting.buildfarm.enabled", false)
	v.SetDefault("reporting.buildfarm.url", "")
	v.SetDefault("reporting.buildfarm.username", "")
	v.SetDefault("reporting.chat.enabled", false)
	v.SetDefault("reporting.chat.channel", "")
	v.SetDefault("reporting.chat.rate_limit", 1.0)
	v.SetDefault("reporting.chat.burst", 5)
	v.SetDefault("reporting.chat.only_failures", false)
	v.SetDefault("reporting.database.enabled", false)
	v.SetDefault("reporting.junit.output", "")

	// -- Metrics --
	v.SetDefault("metrics.listen_address", "")
}

// BindEnv wires environment overrides into v. Nested keys map to
// STEADYHAND_SECTION_KEY, and the secrets get short aliases.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("reporting.buildfarm.access_key", EnvPrefix+"_BUILDFARM_ACCESS_KEY")
	_ = v.BindEnv("reporting.chat.webhook_url", EnvPrefix+"_CHAT_WEBHOOK_URL")
	_ = v.BindEnv("reporting.database.url", EnvPrefix+"_DATABASE_URL")
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Unmarshal skips keys that only exist in the environment.
	if cfg.ReportingCfg.Buildfarm.AccessKey == "" {
		cfg.ReportingCfg.Buildfarm.AccessKey = os.Getenv(EnvPrefix + "_BUILDFARM_ACCESS_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.RunnerCfg.Parallelism <= 0 {
		return errors.New("runner.parallelism must be a positive integer")
	}
	if c.RunnerCfg.RetryBudget < 0 {
		return errors.New("runner.retry_budget must not be negative")
	}
	if c.WaitCfg.TimeoutSeconds < 0 {
		return errors.New("wait.timeout_seconds must not be negative")
	}
	if c.WaitCfg.PollInterval <= 0 {
		return errors.New("wait.poll_interval must be positive")
	}
	if c.WaitCfg.StabilityInterval <= 0 {
		return errors.New("wait.stability_interval must be positive")
	}
	if c.BrowserCfg.BaseURL != "" {
		if err := validateURL(c.BrowserCfg.BaseURL); err != nil {
			return fmt.Errorf("browser.base_url: %w", err)
		}
	}
	if err := c.ReportingCfg.Validate(); err != nil {
		return fmt.Errorf("reporting configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the enabled reporting collaborators.
func (r *ReportingConfig) Validate() error {
	if b := r.Buildfarm; b.Enabled {
		if b.URL == "" || b.Username == "" {
			return errors.New("buildfarm.url and buildfarm.username are required when buildfarm is enabled")
		}
		if err := validateURL(b.URL); err != nil {
			return fmt.Errorf("buildfarm.url: %w", err)
		}
		if b.AccessKey == "" {
			return fmt.Errorf("buildfarm access key is required but not found. Ensure %s_BUILDFARM_ACCESS_KEY is set", EnvPrefix)
		}
	}
	if c := r.Chat; c.Enabled {
		if c.WebhookURL == "" {
			return fmt.Errorf("chat webhook url is required but not found. Ensure %s_CHAT_WEBHOOK_URL is set", EnvPrefix)
		}
		if c.RateLimit <= 0 {
			return errors.New("chat.rate_limit must be positive")
		}
	}
	if r.Database.Enabled && r.Database.URL == "" {
		return fmt.Errorf("database url is required but not found. Ensure %s_DATABASE_URL is set", EnvPrefix)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
