package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"spot-cycler-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Gateway GatewayConfig `yaml:"gateway"`
	Trading TradingConfig `yaml:"trading"`
	Log     logger.Config `yaml:"log"`
}

type GatewayConfig struct {
	APIKey       string  `yaml:"apiKey"`
	APISecret    string  `yaml:"apiSecret"`
	BaseURL      string  `yaml:"baseURL"`
	WSEndpoint   string  `yaml:"wsEndpoint"`
	RestRate     float64 `yaml:"restRate"`  // REST 限流：每秒令牌数
	RestBurst    int     `yaml:"restBurst"` // REST 限流：最大突发令牌数
	RecvWindowMs int     `yaml:"recvWindowMs"`
}

// TradingConfig 保存交易对与周期参数。
type TradingConfig struct {
	Symbol     string `yaml:"symbol"`     // 例如 NANOUSDT
	BaseAsset  string `yaml:"baseAsset"`  // 例如 NANO
	QuoteAsset string `yaml:"quoteAsset"` // 例如 USDT

	ProfitMinPct     float64 `yaml:"profitMinPct"`     // 利润区间下界（%）
	ProfitMaxPct     float64 `yaml:"profitMaxPct"`     // 利润区间上界（%）
	SellSpreadMaxPct float64 `yaml:"sellSpreadMaxPct"` // 自挂卖单与最优卖价的最大价差（%）

	TriggerMode      string `yaml:"triggerMode"`      // cadence | book
	EveryXHours      int    `yaml:"everyXHours"`      // cadence 模式：每 N 个小时级 tick 触发
	CheckIntervalMin int    `yaml:"checkIntervalMin"` // book 模式：盘口检查间隔（分钟）
	LimitWaitSec     int    `yaml:"limitWaitSec"`     // 限价单提交后到轮询的等待秒数

	MinOrderQuote   float64 `yaml:"minOrderQuote"`   // 最小下单名义（计价资产）
	MinOrderPercent float64 `yaml:"minOrderPercent"` // 下单名义占余额百分比
	PriceDecimals   int     `yaml:"priceDecimals"`
	QtyDecimals     int     `yaml:"qtyDecimals"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from the
// historical environment keys if present. Credentials never need to live
// in the file.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("BINANCE_API"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Gateway.APISecret = v
	}
	overrideFloat("PROFIT_PERCENT_MIN", &cfg.Trading.ProfitMinPct)
	overrideFloat("PROFIT_PERCENT_MAX", &cfg.Trading.ProfitMaxPct)
	overrideFloat("SELL_SPREAD_MAX", &cfg.Trading.SellSpreadMaxPct)
	overrideInt("EVERY_X_HOURS", &cfg.Trading.EveryXHours)
	overrideFloat("MIN_ORDER_USDT", &cfg.Trading.MinOrderQuote)
	overrideFloat("MIN_ORDER_SIZE_OF_CURRENT_BALANCE", &cfg.Trading.MinOrderPercent)
	overrideInt("PRICE_DECIMALS", &cfg.Trading.PriceDecimals)
	overrideInt("AMOUNT_DECIMALS", &cfg.Trading.QtyDecimals)
	return cfg, Validate(cfg)
}

func overrideFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func overrideInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	t := &cfg.Trading
	if t.TriggerMode == "" {
		t.TriggerMode = "cadence"
	}
	if t.EveryXHours <= 0 {
		t.EveryXHours = 1
	}
	if t.CheckIntervalMin <= 0 {
		t.CheckIntervalMin = 20
	}
	if t.LimitWaitSec <= 0 {
		t.LimitWaitSec = 5
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://api.binance.com"
	}
	if cfg.Gateway.RestRate <= 0 {
		cfg.Gateway.RestRate = 5
	}
	if cfg.Gateway.RestBurst <= 0 {
		cfg.Gateway.RestBurst = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log = logger.DefaultConfig()
	}
}

// Validate ensures required fields are present and bounds make sense.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Gateway.APIKey == "" || cfg.Gateway.APISecret == "" {
		return errors.New("gateway.apiKey/apiSecret is required (or BINANCE_API / BINANCE_API_SECRET)")
	}
	t := cfg.Trading
	if t.Symbol == "" || t.QuoteAsset == "" {
		return errors.New("trading.symbol and trading.quoteAsset are required")
	}
	if t.TriggerMode != "cadence" && t.TriggerMode != "book" {
		return fmt.Errorf("trading.triggerMode must be cadence or book, got %q", t.TriggerMode)
	}
	if t.ProfitMinPct < 0 || t.ProfitMaxPct < t.ProfitMinPct {
		return errors.New("trading profit bounds must satisfy 0 <= min <= max")
	}
	if t.TriggerMode == "book" && t.SellSpreadMaxPct <= 0 {
		return errors.New("trading.sellSpreadMaxPct must be > 0 in book mode")
	}
	if t.MinOrderQuote <= 0 {
		return errors.New("trading.minOrderQuote must be > 0")
	}
	if t.MinOrderPercent < 0 || t.MinOrderPercent > 100 {
		return errors.New("trading.minOrderPercent must be within [0,100]")
	}
	if t.PriceDecimals < 0 || t.QtyDecimals < 0 {
		return errors.New("trading decimals must be >= 0")
	}
	return nil
}
