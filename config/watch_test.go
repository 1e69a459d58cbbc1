package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeTempConfig(t, baseYAML)
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.Cooldown = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updates := make(chan AppConfig, 4)
	go func() {
		_ = w.Start(ctx, func(cfg AppConfig) { updates <- cfg }, nil)
	}()

	// give the watch loop a moment to come up before mutating the file
	time.Sleep(100 * time.Millisecond)
	changed := strings.Replace(baseYAML, "profitMinPct: 2", "profitMinPct: 4", 1)
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-updates:
		if cfg.Trading.ProfitMinPct != 4 {
			t.Fatalf("expected reloaded profitMinPct 4, got %v", cfg.Trading.ProfitMinPct)
		}
	case <-ctx.Done():
		t.Fatalf("no reload observed before timeout")
	}
}
