package config

import (
	"os"
	"path/filepath"
	"testing"
)

const baseYAML = `
env: dev
gateway:
  apiKey: foo
  apiSecret: bar
  baseURL: https://api.test
trading:
  symbol: NANOUSDT
  baseAsset: NANO
  quoteAsset: USDT
  profitMinPct: 2
  profitMaxPct: 3
  sellSpreadMaxPct: 0.3
  triggerMode: book
  minOrderQuote: 50
  minOrderPercent: 10
  priceDecimals: 3
  qtyDecimals: 2
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "dev" || cfg.Gateway.APIKey != "foo" {
		t.Fatalf("unexpected cfg values: %+v", cfg)
	}
	if cfg.Trading.Symbol != "NANOUSDT" || cfg.Trading.ProfitMaxPct != 3 {
		t.Fatalf("unexpected trading values: %+v", cfg.Trading)
	}
	// defaults fill in
	if cfg.Trading.CheckIntervalMin != 20 || cfg.Trading.LimitWaitSec != 5 {
		t.Fatalf("defaults not applied: %+v", cfg.Trading)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log defaults not applied: %+v", cfg.Log)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, baseYAML)
	t.Setenv("BINANCE_API", "env-key")
	t.Setenv("BINANCE_API_SECRET", "env-secret")
	t.Setenv("PROFIT_PERCENT_MIN", "1.5")
	t.Setenv("MIN_ORDER_USDT", "75")
	t.Setenv("AMOUNT_DECIMALS", "4")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.APIKey != "env-key" || cfg.Gateway.APISecret != "env-secret" {
		t.Fatalf("credential overrides not applied: %+v", cfg.Gateway)
	}
	if cfg.Trading.ProfitMinPct != 1.5 || cfg.Trading.MinOrderQuote != 75 || cfg.Trading.QtyDecimals != 4 {
		t.Fatalf("trading overrides not applied: %+v", cfg.Trading)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(AppConfig{}); err == nil {
		t.Fatalf("expected error for empty config")
	}

	cfg, err := Load(writeTempConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Trading.ProfitMaxPct = 1 // below min
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for inverted profit bounds")
	}
	cfg.Trading.ProfitMaxPct = 3
	cfg.Trading.TriggerMode = "both"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown trigger mode")
	}
}
