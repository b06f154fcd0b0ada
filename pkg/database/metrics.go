package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// PoolStatsCollector exports connection pool statistics for the PostgreSQL
// pool and the Redis client. Either source may be nil.
type PoolStatsCollector struct {
	pg      *pgxpool.Pool
	rdb     *redis.Client
	service string

	totalConns    *prometheus.Desc
	idleConns     *prometheus.Desc
	acquiredConns *prometheus.Desc
	waitCount     *prometheus.Desc
	timeouts      *prometheus.Desc
}

// NewPoolStatsCollector creates a collector labelled with service and store.
func NewPoolStatsCollector(pg *pgxpool.Pool, rdb *redis.Client, service string) *PoolStatsCollector {
	labels := []string{"service", "store"}
	return &PoolStatsCollector{
		pg:      pg,
		rdb:     rdb,
		service: service,
		totalConns: prometheus.NewDesc("db_pool_total_connections",
			"Total number of connections in the pool", labels, nil),
		idleConns: prometheus.NewDesc("db_pool_idle_connections",
			"Number of currently idle connections", labels, nil),
		acquiredConns: prometheus.NewDesc("db_pool_acquired_connections",
			"Number of connections currently in use", labels, nil),
		waitCount: prometheus.NewDesc("db_pool_wait_total",
			"Acquires that had to wait (postgres) or missed the free list (redis)", labels, nil),
		timeouts: prometheus.NewDesc("db_pool_timeouts_total",
			"Acquires that were canceled or timed out", labels, nil),
	}
}

// Describe sends the descriptors of all metrics to the provided channel.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.idleConns
	ch <- c.acquiredConns
	ch <- c.waitCount
	ch <- c.timeouts
}

// Collect reads current pool statistics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pg != nil {
		s := c.pg.Stat()
		c.emit(ch, "postgres",
			float64(s.TotalConns()), float64(s.IdleConns()), float64(s.AcquiredConns()),
			float64(s.EmptyAcquireCount()), float64(s.CanceledAcquireCount()))
	}
	if c.rdb != nil {
		s := c.rdb.PoolStats()
		c.emit(ch, "redis",
			float64(s.TotalConns), float64(s.IdleConns), float64(s.TotalConns-s.IdleConns),
			float64(s.Misses), float64(s.Timeouts))
	}
}

func (c *PoolStatsCollector) emit(ch chan<- prometheus.Metric, store string, total, idle, acquired, waits, timeouts float64) {
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, total, c.service, store)
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, idle, c.service, store)
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, acquired, c.service, store)
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, waits, c.service, store)
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, timeouts, c.service, store)
}

// RegisterPoolMetrics registers a collector with the default registry.
func RegisterPoolMetrics(pg *pgxpool.Pool, rdb *redis.Client, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(pg, rdb, service))
}
