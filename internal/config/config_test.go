// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "steadyhand", cfg.Logger().ServiceName)
	assert.Equal(t, "green", cfg.Logger().Colors.Info)
	assert.Equal(t, 30, cfg.Wait().TimeoutSeconds)
	assert.Equal(t, 250*time.Millisecond, cfg.Wait().PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Wait().StabilityInterval)
	assert.Equal(t, 1, cfg.Runner().Parallelism)
	assert.Zero(t, cfg.Runner().RetryBudget)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 1280, cfg.Browser().WindowWidth)
	assert.Equal(t, 15*time.Second, cfg.Reporting().Timeout)
	assert.False(t, cfg.Reporting().Buildfarm.Enabled)
	assert.Equal(t, 1.0, cfg.Reporting().Chat.RateLimit)
	assert.Empty(t, cfg.Metrics().ListenAddress)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetRunnerParallelism(4)
	cfg.SetRunnerRetryBudget(2)
	cfg.SetRunnerUniqueID("1234567890")
	cfg.SetWaitTimeoutSeconds(5)
	cfg.SetBrowserHeadless(false)
	cfg.SetBrowserBaseURL("https://app.example.test")
	cfg.SetJUnitOutput("out/junit.xml")
	cfg.SetMetricsListenAddress(":9102")

	assert.Equal(t, RunnerConfig{Parallelism: 4, RetryBudget: 2, UniqueID: "1234567890"}, cfg.Runner())
	assert.Equal(t, 5, cfg.Wait().TimeoutSeconds)
	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, "https://app.example.test", cfg.Browser().BaseURL)
	assert.Equal(t, "out/junit.xml", cfg.Reporting().JUnit.Output)
	assert.Equal(t, ":9102", cfg.Metrics().ListenAddress)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"zero parallelism", func(c *Config) { c.RunnerCfg.Parallelism = 0 }, "runner.parallelism must be a positive integer"},
		{"negative retries", func(c *Config) { c.RunnerCfg.RetryBudget = -1 }, "runner.retry_budget must not be negative"},
		{"negative wait", func(c *Config) { c.WaitCfg.TimeoutSeconds = -1 }, "wait.timeout_seconds must not be negative"},
		{"zero poll interval", func(c *Config) { c.WaitCfg.PollInterval = 0 }, "wait.poll_interval must be positive"},
		{"zero stability interval", func(c *Config) { c.WaitCfg.StabilityInterval = 0 }, "wait.stability_interval must be positive"},
		{"bad base url", func(c *Config) { c.BrowserCfg.BaseURL = "ftp://files.example.test" }, "browser.base_url"},
		{"base url without host", func(c *Config) { c.BrowserCfg.BaseURL = "https://" }, "missing host"},
		{"buildfarm without user", func(c *Config) {
			c.ReportingCfg.Buildfarm = BuildfarmConfig{Enabled: true, URL: "https://farm.example.test"}
		}, "buildfarm.url and buildfarm.username are required"},
		{"buildfarm without key", func(c *Config) {
			c.ReportingCfg.Buildfarm = BuildfarmConfig{Enabled: true, URL: "https://farm.example.test", Username: "ci"}
		}, "STEADYHAND_BUILDFARM_ACCESS_KEY"},
		{"buildfarm complete", func(c *Config) {
			c.ReportingCfg.Buildfarm = BuildfarmConfig{Enabled: true, URL: "https://farm.example.test", Username: "ci", AccessKey: "k"}
		}, ""},
		{"chat without webhook", func(c *Config) { c.ReportingCfg.Chat.Enabled = true }, "STEADYHAND_CHAT_WEBHOOK_URL"},
		{"chat with zero rate", func(c *Config) {
			c.ReportingCfg.Chat = ChatConfig{Enabled: true, WebhookURL: "https://hooks.example.test/x"}
		}, "chat.rate_limit must be positive"},
		{"database without url", func(c *Config) { c.ReportingCfg.Database.Enabled = true }, "STEADYHAND_DATABASE_URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
runner:
  parallelism: 3
  retry_budget: 1
wait:
  timeout_seconds: 12
  poll_interval: 100ms
browser:
  base_url: https://shop.example.test
  args: ["lang=en-US"]
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Runner().Parallelism)
		assert.Equal(t, 1, cfg.Runner().RetryBudget)
		assert.Equal(t, 12, cfg.Wait().TimeoutSeconds)
		assert.Equal(t, 100*time.Millisecond, cfg.Wait().PollInterval)
		assert.Equal(t, []string{"lang=en-US"}, cfg.Browser().Args)
		assert.True(t, cfg.Browser().Headless, "unset keys keep their defaults")
	})

	t.Run("environment overrides and secrets", func(t *testing.T) {
		t.Setenv("STEADYHAND_RUNNER_PARALLELISM", "6")
		t.Setenv("STEADYHAND_DATABASE_URL", "postgres://ci@db/outcomes")
		t.Setenv("STEADYHAND_BUILDFARM_ACCESS_KEY", "secret")

		v := viper.New()
		SetDefaults(v)
		BindEnv(v)
		v.Set("reporting.database.enabled", true)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Runner().Parallelism)
		assert.Equal(t, "postgres://ci@db/outcomes", cfg.Reporting().Database.URL)
		assert.Equal(t, "secret", cfg.Reporting().Buildfarm.AccessKey)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("runner.parallelism", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
