package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector reads connection pool statistics on each gather.
type PoolStatsCollector struct {
	pool *pgxpool.Pool

	totalConns    *prometheus.Desc
	acquiredConns *prometheus.Desc
	acquireCount  *prometheus.Desc
}

// NewPoolStatsCollector creates a collector for pool. A nil pool
// yields no samples.
func NewPoolStatsCollector(pool *pgxpool.Pool, namespace string) *PoolStatsCollector {
	return &PoolStatsCollector{
		pool: pool,
		totalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total number of connections currently open in the pool",
			nil, nil,
		),
		acquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Number of connections currently acquired from the pool",
			nil, nil,
		),
		acquireCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquires_total"),
			"Cumulative successful acquires from the pool",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.acquiredConns
	ch <- c.acquireCount
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}

	stats := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stats.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stats.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stats.AcquireCount()))
}

// RegisterPoolStats registers a collector for pool with reg. Registering
// the same pool twice is not an error.
func RegisterPoolStats(reg prometheus.Registerer, pool *pgxpool.Pool, namespace string) (*PoolStatsCollector, error) {
	collector := NewPoolStatsCollector(pool, namespace)
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
	}
	return collector, nil
}
