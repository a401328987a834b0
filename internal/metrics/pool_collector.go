package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsSource 连接池统计来源
// 由service.ConnectionRegistry实现
type PoolStatsSource interface {
	Stats() map[string]*pgxpool.Stat
}

// PoolStatsCollector 连接池统计收集器
// 抓取时实时读取每个已注册连接池的pgxpool统计信息
type PoolStatsCollector struct {
	source PoolStatsSource

	totalConnsDesc    *prometheus.Desc
	idleConnsDesc     *prometheus.Desc
	acquiredConnsDesc *prometheus.Desc
	acquireCountDesc  *prometheus.Desc
}

// NewPoolStatsCollector 创建连接池统计收集器
func NewPoolStatsCollector(source PoolStatsSource) *PoolStatsCollector {
	return &PoolStatsCollector{
		source: source,
		totalConnsDesc: prometheus.NewDesc(
			"sqldesk_pool_total_conns",
			"Total connections in the pool",
			[]string{"connection_id"},
			nil,
		),
		idleConnsDesc: prometheus.NewDesc(
			"sqldesk_pool_idle_conns",
			"Idle connections in the pool",
			[]string{"connection_id"},
			nil,
		),
		acquiredConnsDesc: prometheus.NewDesc(
			"sqldesk_pool_acquired_conns",
			"Currently acquired connections in the pool",
			[]string{"connection_id"},
			nil,
		),
		acquireCountDesc: prometheus.NewDesc(
			"sqldesk_pool_acquire_count_total",
			"Cumulative connection acquires from the pool",
			[]string{"connection_id"},
			nil,
		),
	}
}

// Describe 实现prometheus.Collector接口
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConnsDesc
	ch <- c.idleConnsDesc
	ch <- c.acquiredConnsDesc
	ch <- c.acquireCountDesc
}

// Collect 实现prometheus.Collector接口
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	for connectionID, stat := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(
			c.totalConnsDesc, prometheus.GaugeValue,
			float64(stat.TotalConns()), connectionID)
		ch <- prometheus.MustNewConstMetric(
			c.idleConnsDesc, prometheus.GaugeValue,
			float64(stat.IdleConns()), connectionID)
		ch <- prometheus.MustNewConstMetric(
			c.acquiredConnsDesc, prometheus.GaugeValue,
			float64(stat.AcquiredConns()), connectionID)
		ch <- prometheus.MustNewConstMetric(
			c.acquireCountDesc, prometheus.CounterValue,
			float64(stat.AcquireCount()), connectionID)
	}
}
