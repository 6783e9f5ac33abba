// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー・リゾルバ・共有カレンダーキャッシュから利用する。
type MetricsCollector interface {
	RecordQuery(intent string)
	RecordQueryLatency(duration time.Duration)
	RecordResolution(source string)
	RecordSourceFailure(source string)
	RecordSharedCalendarFetch()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	queries        *prometheus.CounterVec
	queryLatency   prometheus.Histogram
	resolutions    *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	sharedFetches  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wherebot_query_total",
			Help: "意図（intent）別の受信クエリ数",
		}, []string{"intent"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wherebot_query_latency_seconds",
			Help:    "クエリ応答生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wherebot_resolution_total",
			Help: "採用された情報源別の所在地解決数",
		}, []string{"source"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wherebot_source_failure_total",
			Help: "外部ソース別の呼び出し失敗数",
		}, []string{"source"}),
		sharedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wherebot_shared_calendar_fetch_total",
			Help: "共有不在カレンダーへの実フェッチ発行数（プロセスにつき最大1のはず）",
		}),
	}

	reg.MustRegister(
		c.queries,
		c.queryLatency,
		c.resolutions,
		c.sourceFailures,
		c.sharedFetches,
	)

	return c
}

// RecordQuery は意図別の受信クエリを記録する。
func (c *Collector) RecordQuery(intent string) {
	c.queries.WithLabelValues(intent).Inc()
}

// RecordQueryLatency は応答生成のレイテンシを記録する。
func (c *Collector) RecordQueryLatency(duration time.Duration) {
	c.queryLatency.Observe(duration.Seconds())
}

// RecordResolution は採用された情報源別の解決を記録する。
func (c *Collector) RecordResolution(source string) {
	c.resolutions.WithLabelValues(source).Inc()
}

// RecordSourceFailure は外部ソースの呼び出し失敗を記録する。
func (c *Collector) RecordSourceFailure(source string) {
	c.sourceFailures.WithLabelValues(source).Inc()
}

// RecordSharedCalendarFetch は共有カレンダーへの実フェッチ発行を記録する。
func (c *Collector) RecordSharedCalendarFetch() {
	c.sharedFetches.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
