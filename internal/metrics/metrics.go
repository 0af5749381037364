// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// アップロード結果のラベル値。
const (
	UploadResultSuccess  = "success"
	UploadResultRejected = "rejected"
	UploadResultFailed   = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordJobPosted()
	RecordVisibilityChange()
	RecordApplicationCreated()
	RecordStatusChange(status string)
	RecordUpload(kind, result string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests       *prometheus.CounterVec
	jobsPosted         prometheus.Counter
	visibilityChanges  prometheus.Counter
	applicationsCreate prometheus.Counter
	statusChanges      *prometheus.CounterVec
	uploads            *prometheus.CounterVec
	uploadDuration     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		jobsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_jobs_posted_total",
			Help: "投稿された求人の合計数",
		}),
		visibilityChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_job_visibility_changes_total",
			Help: "求人の公開状態切り替えの合計数",
		}),
		applicationsCreate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_applications_created_total",
			Help: "作成された応募の合計数",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_application_status_changes_total",
			Help: "変更後ステータス別の応募ステータス変更数",
		}, []string{"status"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_uploads_total",
			Help: "種別・結果別のファイルアップロード数",
		}, []string{"kind", "result"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobboard_upload_duration_seconds",
			Help:    "外部ストレージへのアップロード所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.jobsPosted,
		c.visibilityChanges,
		c.applicationsCreate,
		c.statusChanges,
		c.uploads,
		c.uploadDuration,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordJobPosted は求人投稿を記録する。
func (c *Collector) RecordJobPosted() {
	c.jobsPosted.Inc()
}

// RecordVisibilityChange は公開状態の切り替えを記録する。
func (c *Collector) RecordVisibilityChange() {
	c.visibilityChanges.Inc()
}

// RecordApplicationCreated は応募の作成を記録する。
func (c *Collector) RecordApplicationCreated() {
	c.applicationsCreate.Inc()
}

// RecordStatusChange は応募ステータスの変更を記録する。
func (c *Collector) RecordStatusChange(status string) {
	c.statusChanges.WithLabelValues(status).Inc()
}

// RecordUpload はアップロード結果を記録する。所要時間は成功時のみ観測する。
func (c *Collector) RecordUpload(kind, result string, duration time.Duration) {
	c.uploads.WithLabelValues(kind, result).Inc()
	if result == UploadResultSuccess {
		c.uploadDuration.Observe(duration.Seconds())
	}
}

// Noop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Noop struct{}

func (Noop) RecordHTTPStatus(int)                        {}
func (Noop) RecordJobPosted()                            {}
func (Noop) RecordVisibilityChange()                     {}
func (Noop) RecordApplicationCreated()                   {}
func (Noop) RecordStatusChange(string)                   {}
func (Noop) RecordUpload(string, string, time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Noop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
