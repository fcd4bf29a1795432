package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeTempConfig(t, `telegram:
  bot_token: "abc"
market_data:
  timeout: 3s
  max_retries: 2
chart:
  attempts: 5
schedule:
  watchlist: ["NVDA", "MSFT"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "abc" {
		t.Errorf("bot token = %q", cfg.Telegram.BotToken)
	}
	if cfg.MarketData.Timeout != 3*time.Second || cfg.MarketData.MaxRetries != 2 {
		t.Errorf("market data = %+v", cfg.MarketData)
	}
	if cfg.Chart.Attempts != 5 || cfg.Chart.MinBytes != 10000 || cfg.Chart.ReadyTimeout != 20*time.Second {
		t.Errorf("chart = %+v", cfg.Chart)
	}
	if cfg.Sheet.Timeout != 10*time.Second || cfg.Sheet.MaxRetries != 3 {
		t.Errorf("sheet defaults = %+v", cfg.Sheet)
	}
	if cfg.Portfolio.MaxRows != 25 {
		t.Errorf("portfolio max rows = %d", cfg.Portfolio.MaxRows)
	}
	if cfg.Fetch.Backoff != time.Second {
		t.Errorf("backoff = %v", cfg.Fetch.Backoff)
	}
	if len(cfg.Schedule.Watchlist) != 2 {
		t.Errorf("watchlist = %v", cfg.Schedule.Watchlist)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("PORT", "8081")
	t.Setenv("GOOGLE_SCRIPT_URL", "https://script.example/exec")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("bot token = %q", cfg.Telegram.BotToken)
	}
	if cfg.Server.Addr != ":8081" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Sheet.URL != "https://script.example/exec" {
		t.Errorf("sheet url = %q", cfg.Sheet.URL)
	}
	if !cfg.Sheet.YahooFallback {
		t.Error("yahoo fallback should default to true")
	}
}

func TestLoad_ExplicitZeroSheetRetries(t *testing.T) {
	path := writeTempConfig(t, `sheet:
  max_retries: 0
  yahoo_fallback: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sheet.MaxRetries != 0 {
		t.Errorf("sheet max retries = %d, want explicit 0 kept", cfg.Sheet.MaxRetries)
	}
	if cfg.Sheet.YahooFallback {
		t.Error("explicit yahoo_fallback: false was overridden")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeTempConfig(t, "telegram: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		cfg.Telegram.BotToken = "x"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"no token", func(c *Config) { c.Telegram.BotToken = "" }, false},
		{"negative retries", func(c *Config) { c.MarketData.MaxRetries = -1 }, false},
		{"zero attempts", func(c *Config) { c.Chart.Attempts = -1 }, false},
		{"ack after timeout", func(c *Config) { c.Bot.AckDeadline = time.Minute; c.Bot.CommandTimeout = time.Second }, false},
		{"portfolio without secret", func(c *Config) { c.Portfolio.URL = "https://p.example" }, false},
		{"digest without chat", func(c *Config) { c.Schedule.DigestCron = "0 0 9 * * 1-5" }, false},
		{"digest complete", func(c *Config) {
			c.Schedule.DigestCron = "0 0 9 * * 1-5"
			c.Schedule.DigestChatID = 42
			c.Schedule.Watchlist = []string{"NVDA"}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}
