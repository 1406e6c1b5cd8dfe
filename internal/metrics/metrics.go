// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordGridBuildLatency(duration time.Duration)
	RecordImportSuccess()
	RecordImportFailure(reason string)
	RecordImportedEvents(count int)
	RecordDroppedRecord(kind string)
	RecordRemindersGenerated(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	gridBuildLatency   prometheus.Histogram
	importSuccess      prometheus.Counter
	importFail         *prometheus.CounterVec
	importedEvents     prometheus.Counter
	droppedRecords     *prometheus.CounterVec
	remindersGenerated prometheus.Counter
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gridBuildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catchup_grid_build_latency_seconds",
			Help:    "月グリッド構築のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		importSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catchup_ics_import_success_total",
			Help: "ICS取り込み成功の合計数",
		}),
		importFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catchup_ics_import_fail_total",
			Help: "ICS取り込み失敗の理由別合計数",
		}, []string{"reason"}),
		importedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catchup_ics_imported_events_total",
			Help: "ICS取り込みで作成されたイベントの合計数",
		}),
		droppedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catchup_dropped_records_total",
			Help: "正規化時に除外された不正レコードの種別別合計数",
		}, []string{"kind"}),
		remindersGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catchup_reminders_generated_total",
			Help: "リマインダーワーカーが生成した通知の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catchup_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.gridBuildLatency,
		c.importSuccess,
		c.importFail,
		c.importedEvents,
		c.droppedRecords,
		c.remindersGenerated,
		c.httpStatus,
	)

	return c
}

// RecordGridBuildLatency は月グリッド構築のレイテンシを記録する。
func (c *Collector) RecordGridBuildLatency(duration time.Duration) {
	c.gridBuildLatency.Observe(duration.Seconds())
}

// RecordImportSuccess はICS取り込み成功を記録する。
func (c *Collector) RecordImportSuccess() {
	c.importSuccess.Inc()
}

// RecordImportFailure はICS取り込み失敗を記録する。
func (c *Collector) RecordImportFailure(reason string) {
	c.importFail.WithLabelValues(reason).Inc()
}

// RecordImportedEvents は取り込みで作成されたイベント数を記録する。
func (c *Collector) RecordImportedEvents(count int) {
	c.importedEvents.Add(float64(count))
}

// RecordDroppedRecord は正規化時に除外されたレコードを記録する。
func (c *Collector) RecordDroppedRecord(kind string) {
	c.droppedRecords.WithLabelValues(kind).Inc()
}

// RecordRemindersGenerated はリマインダーワーカーが生成した通知数を記録する。
func (c *Collector) RecordRemindersGenerated(count int) {
	c.remindersGenerated.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
