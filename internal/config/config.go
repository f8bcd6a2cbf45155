package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Bybit struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
		WSURL     string `yaml:"ws_url"`
	} `yaml:"bybit"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Trading struct {
		Symbol          string  `yaml:"symbol"`
		Interval        string  `yaml:"interval"`
		Window          int     `yaml:"window"`
		Leverage        float64 `yaml:"leverage"`
		RiskPerTrade    float64 `yaml:"risk_per_trade"`
		RiskRewardRatio float64 `yaml:"risk_reward_ratio"`
		ReferenceSymbol string  `yaml:"reference_symbol"`
	} `yaml:"trading"`
	Proposals struct {
		TTLMinutes int `yaml:"ttl_minutes"`
		MaxPending int `yaml:"max_pending"`
	} `yaml:"proposals"`
	Webhook struct {
		Addr string `yaml:"addr"`
	} `yaml:"webhook"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		SweepCron  string `yaml:"sweep_cron"`
		StatusCron string `yaml:"status_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		cfg.Bybit.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		cfg.Bybit.APISecret = v
	}
	if v := os.Getenv("BYBIT_BASE_URL"); v != "" {
		cfg.Bybit.BaseURL = v
	}
	if v := os.Getenv("BYBIT_WS_URL"); v != "" {
		cfg.Bybit.WSURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.Trading.Symbol = v
	}
	if v := os.Getenv("TRADING_SYMBOL"); v != "" {
		cfg.Trading.Symbol = v
	}
	if v := os.Getenv("RISK_PER_TRADE"); v != "" {
		var risk float64
		if _, err := fmt.Sscanf(v, "%f", &risk); err == nil {
			cfg.Trading.RiskPerTrade = risk
		}
	}
	if v := os.Getenv("LEVERAGE"); v != "" {
		var lev float64
		if _, err := fmt.Sscanf(v, "%f", &lev); err == nil {
			cfg.Trading.Leverage = lev
		}
	}
	if v := os.Getenv("RISK_REWARD_RATIO"); v != "" {
		var rr float64
		if _, err := fmt.Sscanf(v, "%f", &rr); err == nil {
			cfg.Trading.RiskRewardRatio = rr
		}
	}
	if v := os.Getenv("WEBHOOK_ADDR"); v != "" {
		cfg.Webhook.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Bybit.BaseURL == "" {
		cfg.Bybit.BaseURL = "https://api.bybit.com"
	}
	if cfg.Bybit.WSURL == "" {
		cfg.Bybit.WSURL = "wss://stream.bybit.com/v5/public/linear"
	}
	if cfg.Trading.Symbol == "" {
		cfg.Trading.Symbol = "BTCUSDT"
	}
	if cfg.Trading.Interval == "" {
		cfg.Trading.Interval = "15"
	}
	if cfg.Trading.Window == 0 {
		cfg.Trading.Window = 200
	}
	if cfg.Trading.Leverage == 0 {
		cfg.Trading.Leverage = 5
	}
	if cfg.Trading.RiskPerTrade == 0 {
		cfg.Trading.RiskPerTrade = 100
	}
	if cfg.Trading.RiskRewardRatio == 0 {
		cfg.Trading.RiskRewardRatio = 0.33
	}
	if cfg.Proposals.TTLMinutes == 0 {
		cfg.Proposals.TTLMinutes = 15
	}
	if cfg.Proposals.MaxPending == 0 {
		cfg.Proposals.MaxPending = 32
	}
	if cfg.Webhook.Addr == "" {
		cfg.Webhook.Addr = ":5000"
	}
	if cfg.Schedule.SweepCron == "" {
		cfg.Schedule.SweepCron = "0 * * * * *"
	}
	if cfg.Schedule.StatusCron == "" {
		cfg.Schedule.StatusCron = "0 0 8 * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Bybit.APIKey == "" {
		return fmt.Errorf("bybit.api_key is required")
	}
	if c.Bybit.APISecret == "" {
		return fmt.Errorf("bybit.api_secret is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Trading.RiskPerTrade <= 0 {
		return fmt.Errorf("trading.risk_per_trade must be positive")
	}
	if c.Trading.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be positive")
	}
	if c.Trading.RiskRewardRatio <= 0 {
		return fmt.Errorf("trading.risk_reward_ratio must be positive")
	}
	return nil
}
