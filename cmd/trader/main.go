package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spot-cycler-go/config"
	"spot-cycler-go/gateway"
	"spot-cycler-go/infrastructure/alert"
	"spot-cycler-go/infrastructure/logger"
	"spot-cycler-go/market"
	"spot-cycler-go/metrics"
	"spot-cycler-go/trade"

	"github.com/coreos/go-systemd/v22/daemon"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	metricsAddr := flag.String("metricsAddr", ":9100", "Prometheus metrics 监听地址，留空则关闭")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	appLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer appLog.Close()

	metrics.StartMetricsServer(*metricsAddr)

	alerts := alert.NewManager(5*time.Minute,
		alert.NewLogChannel("log", os.Stderr),
		alert.NewConsoleChannel("console"),
	)

	restClient := &gateway.BinanceRESTClient{
		BaseURL:      cfg.Gateway.BaseURL,
		APIKey:       cfg.Gateway.APIKey,
		Secret:       cfg.Gateway.APISecret,
		HTTPClient:   gateway.NewDefaultHTTPClient(),
		RecvWindowMs: cfg.Gateway.RecvWindowMs,
		Limiter:      gateway.NewTokenBucketLimiter(cfg.Gateway.RestRate, cfg.Gateway.RestBurst),
	}
	provider := &market.Provider{
		Client:        restClient,
		Symbol:        cfg.Trading.Symbol,
		QuoteAsset:    cfg.Trading.QuoteAsset,
		PriceDecimals: cfg.Trading.PriceDecimals,
	}

	// 周期事件统一走 zap；错误事件额外进入告警通道。
	sink := func(event string, fields map[string]interface{}) {
		appLog.Event(event, fields)
		if _, isErr := fields["error"]; isErr {
			alerts.Notify("ERROR", event, fields)
		}
	}

	cycler := trade.NewCycler(cfg.Trading.Symbol, restClient, provider, tradingParams(cfg), sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var bookTrigger *trade.BookTrigger
	var policy trade.TriggerPolicy
	var interval time.Duration
	switch cfg.Trading.TriggerMode {
	case "book":
		bookTrigger = trade.NewBookTrigger(cfg.Trading.Symbol, restClient, provider, cfg.Trading.SellSpreadMaxPct, sink)
		stream := gateway.NewBookTickerStream(cfg.Trading.Symbol)
		if cfg.Gateway.WSEndpoint != "" {
			stream.Endpoint = cfg.Gateway.WSEndpoint
		}
		stream.OnError(func(err error) {
			sink("ws_error", map[string]interface{}{"error": err.Error()})
		})
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				sink("ws_exit", map[string]interface{}{"error": err.Error()})
			}
		}()
		bookTrigger.Live = stream
		policy = bookTrigger
		interval = time.Duration(cfg.Trading.CheckIntervalMin) * time.Minute
	default:
		policy = &trade.CadenceTrigger{EveryX: cfg.Trading.EveryXHours}
		interval = time.Hour
	}

	// 配置热更新：只允许调整运行参数，凭证/交易对变更需要重启。
	if watcher, err := config.NewWatcher(*cfgPath); err == nil {
		go func() {
			_ = watcher.Start(ctx, func(newCfg config.AppConfig) {
				cycler.SetParams(tradingParams(newCfg))
				if bookTrigger != nil {
					bookTrigger.SetMaxSpread(newCfg.Trading.SellSpreadMaxPct)
				}
				sink("config_reloaded", map[string]interface{}{"path": *cfgPath})
			}, func(err error) {
				sink("config_reload_error", map[string]interface{}{"error": err.Error()})
			})
		}()
	} else {
		sink("config_watch_error", map[string]interface{}{"error": err.Error()})
	}

	scheduler := &trade.Scheduler{
		Interval: interval,
		Policy:   policy,
		Cycle:    cycler.Run,
		Sink:     sink,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		sink("shutdown_signal", nil)
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		cancel()
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	go watchdogLoop(ctx)

	sink("trader_started", map[string]interface{}{
		"symbol":   cfg.Trading.Symbol,
		"trigger":  cfg.Trading.TriggerMode,
		"interval": interval.String(),
	})
	_ = scheduler.Start(ctx)
	sink("trader_exit", map[string]interface{}{"symbol": cfg.Trading.Symbol})
}

func tradingParams(cfg config.AppConfig) trade.Params {
	t := cfg.Trading
	return trade.Params{
		ProfitMinPct:     t.ProfitMinPct,
		ProfitMaxPct:     t.ProfitMaxPct,
		SellSpreadMaxPct: t.SellSpreadMaxPct,
		MinOrderQuote:    t.MinOrderQuote,
		MinOrderPercent:  t.MinOrderPercent,
		PriceDecimals:    t.PriceDecimals,
		QtyDecimals:      t.QtyDecimals,
		LimitWait:        time.Duration(t.LimitWaitSec) * time.Second,
	}
}

// watchdogLoop 在 systemd 启用 WatchdogSec 时定期喂狗。
func watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
