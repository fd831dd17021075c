// Package metrics exposes the bot's Prometheus counters.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "revertbot_signals_total", Help: "Combined signals produced per pair"},
		[]string{"pair", "signal"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "revertbot_orders_total", Help: "Orders submitted"},
		[]string{"pair", "side"},
	)
	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "revertbot_settlements_total", Help: "Order settlement outcomes"},
		[]string{"pair", "status"},
	)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "revertbot_runs_total", Help: "Trading runs by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(SignalsTotal, OrdersTotal, SettlementsTotal, RunsTotal)
}

// Push sends the default registry to a Pushgateway. A run is short lived so nothing scrapes it.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if job == "" {
		job = "revertbot"
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
