// Package metrics provides Prometheus metrics for the trading cycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal 按结果统计周期执行次数（completed/aborted/skipped/error）。
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cycler_cycles_total",
		Help: "周期执行次数",
	}, []string{"result"})

	// TriggerDecisions 触发器评估结果（fire/noop）。
	TriggerDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cycler_trigger_decisions_total",
		Help: "触发器评估结果",
	}, []string{"policy", "decision"})

	// OrdersSubmitted 按方向与类型统计下单次数。
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cycler_orders_submitted_total",
		Help: "下单次数",
	}, []string{"side", "type"})

	// OrderErrors 按操作统计交易所调用失败。
	OrderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cycler_order_errors_total",
		Help: "交易所调用失败次数",
	}, []string{"action"})

	// QuoteBalance 最近一次快照的可用计价资产余额。
	QuoteBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cycler_quote_balance",
		Help: "可用计价资产余额",
	})

	// MidPrice 最近一次快照的中间价。
	MidPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cycler_mid_price",
		Help: "快照中间价",
	})

	// CarryOverAmount 当前结转数量。
	CarryOverAmount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cycler_carry_over_amount",
		Help: "待并入下次卖单的结转数量",
	})

	// ProfitFactor 最近一次卖单使用的利润系数。
	ProfitFactor = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cycler_profit_factor",
		Help: "最近卖单的利润系数",
	})

	// SellSpreadPct 盘口感知触发器计算出的挂单价差（%）。
	SellSpreadPct = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cycler_sell_spread_percent",
		Help: "自挂卖单与最优卖价的价差百分比",
	})
)

// UpdateSnapshot 记录快照相关指标。
func UpdateSnapshot(mid, quoteBalance float64) {
	MidPrice.Set(mid)
	QuoteBalance.Set(quoteBalance)
}

// StartMetricsServer 启动Prometheus指标服务器。
func StartMetricsServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
