package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken      string  `yaml:"bot_token"`
		APIBaseURL    string  `yaml:"api_base_url"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		PollTimeout   int     `yaml:"poll_timeout"` // seconds, getUpdates long-poll
	} `yaml:"telegram"`
	MarketData struct {
		BaseURL    string        `yaml:"base_url"`
		UserAgent  string        `yaml:"user_agent"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"market_data"`
	Sheet struct {
		URL        string        `yaml:"url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
		// YahooFallback builds the stock card from Yahoo bars when the sheet has no row.
		YahooFallback bool `yaml:"yahoo_fallback"`
	} `yaml:"sheet"`
	Portfolio struct {
		URL     string `yaml:"url"`
		Secret  string `yaml:"secret"`
		MaxRows int    `yaml:"max_rows"` // rows beyond this are summarized so the reply fits one message
	} `yaml:"portfolio"`
	Fetch struct {
		Backoff time.Duration `yaml:"backoff"`
	} `yaml:"fetch"`
	Chart struct {
		WidgetURL      string        `yaml:"widget_url"`
		Theme          string        `yaml:"theme"`
		ExecPath       string        `yaml:"exec_path"`
		Width          int           `yaml:"width"`
		Height         int           `yaml:"height"`
		ReadyTimeout   time.Duration `yaml:"ready_timeout"`
		MinCanvasWidth int           `yaml:"min_canvas_width"`
		MinBytes       int           `yaml:"min_bytes"`
		Attempts       int           `yaml:"attempts"`
		AttemptDelay   time.Duration `yaml:"attempt_delay"`
	} `yaml:"chart"`
	Bot struct {
		AckDeadline    time.Duration `yaml:"ack_deadline"`
		CommandTimeout time.Duration `yaml:"command_timeout"`
	} `yaml:"bot"`
	Schedule struct {
		DigestCron   string   `yaml:"digest_cron"`
		DigestChatID int64    `yaml:"digest_chat_id"`
		Watchlist    []string `yaml:"watchlist"`
		PruneCron    string   `yaml:"prune_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string        `yaml:"sqlite_path"`
		Retention  time.Duration `yaml:"retention"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	// Seeded before parsing so an explicit false or 0 in the file is kept.
	cfg := &Config{}
	cfg.Sheet.YahooFallback = true
	cfg.Sheet.MaxRetries = 3

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("GOOGLE_SCRIPT_URL"); v != "" {
		cfg.Sheet.URL = v
	}
	if v := os.Getenv("GOOGLE_SCRIPT_URL_PORTFOLIO"); v != "" {
		cfg.Portfolio.URL = v
	}
	if v := os.Getenv("PORTFOLIO_SECRET"); v != "" {
		cfg.Portfolio.Secret = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Chart.ExecPath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		cfg.Schedule.DigestCron = v
	}
	if v := os.Getenv("DIGEST_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Schedule.DigestChatID = id
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.RatePerSecond <= 0 {
		cfg.Telegram.RatePerSecond = 25
	}
	if cfg.Telegram.PollTimeout <= 0 {
		cfg.Telegram.PollTimeout = 30
	}
	if cfg.MarketData.BaseURL == "" {
		cfg.MarketData.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.MarketData.UserAgent == "" {
		cfg.MarketData.UserAgent = "Mozilla/5.0"
	}
	if cfg.MarketData.Timeout == 0 {
		cfg.MarketData.Timeout = 10 * time.Second
	}
	if cfg.Sheet.Timeout == 0 {
		cfg.Sheet.Timeout = 10 * time.Second
	}
	if cfg.Portfolio.MaxRows == 0 {
		cfg.Portfolio.MaxRows = 25
	}
	if cfg.Fetch.Backoff == 0 {
		cfg.Fetch.Backoff = time.Second
	}
	if cfg.Chart.WidgetURL == "" {
		cfg.Chart.WidgetURL = "https://s.tradingview.com/widgetembed/"
	}
	if cfg.Chart.Theme == "" {
		cfg.Chart.Theme = "dark"
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 1280
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 720
	}
	if cfg.Chart.ReadyTimeout == 0 {
		cfg.Chart.ReadyTimeout = 20 * time.Second
	}
	if cfg.Chart.MinCanvasWidth == 0 {
		cfg.Chart.MinCanvasWidth = 800
	}
	if cfg.Chart.MinBytes == 0 {
		cfg.Chart.MinBytes = 10000
	}
	if cfg.Chart.Attempts == 0 {
		cfg.Chart.Attempts = 3
	}
	if cfg.Chart.AttemptDelay == 0 {
		cfg.Chart.AttemptDelay = time.Second
	}
	if cfg.Bot.AckDeadline == 0 {
		cfg.Bot.AckDeadline = 2 * time.Second
	}
	if cfg.Bot.CommandTimeout == 0 {
		cfg.Bot.CommandTimeout = 60 * time.Second
	}
	if cfg.Schedule.PruneCron == "" {
		cfg.Schedule.PruneCron = "0 30 3 * * *"
	}
	if cfg.Database.Retention == 0 {
		cfg.Database.Retention = 30 * 24 * time.Hour
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that all required fields are set and bounds hold.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.MarketData.Timeout <= 0 || c.Sheet.Timeout <= 0 {
		return fmt.Errorf("fetch timeouts must be positive")
	}
	if c.MarketData.MaxRetries < 0 || c.Sheet.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Fetch.Backoff < 0 {
		return fmt.Errorf("fetch.backoff must not be negative")
	}
	if c.Chart.Attempts < 1 {
		return fmt.Errorf("chart.attempts must be at least 1")
	}
	if c.Bot.AckDeadline >= c.Bot.CommandTimeout {
		return fmt.Errorf("bot.ack_deadline must be shorter than bot.command_timeout")
	}
	if c.Portfolio.URL != "" && c.Portfolio.Secret == "" {
		return fmt.Errorf("portfolio.secret is required when portfolio.url is set")
	}
	if c.Schedule.DigestCron != "" && (c.Schedule.DigestChatID == 0 || len(c.Schedule.Watchlist) == 0) {
		return fmt.Errorf("schedule.digest_cron needs digest_chat_id and a watchlist")
	}
	return nil
}
