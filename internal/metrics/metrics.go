// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/bugtrack/internal/middleware"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordUserRegistered()
	RecordLogin()
	RecordProjectCreated()
	RecordBugReported()
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
	usersRegistered prometheus.Counter
	logins          prometheus.Counter
	projectsCreated prometheus.Counter
	bugsReported    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bugtrack_http_requests_total",
			Help: "メソッド・パス・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "path", "status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bugtrack_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bugtrack_users_registered_total",
			Help: "登録されたユーザーの合計数",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bugtrack_logins_total",
			Help: "ログイン成功の合計数",
		}),
		projectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bugtrack_projects_created_total",
			Help: "作成されたプロジェクトの合計数",
		}),
		bugsReported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bugtrack_bugs_reported_total",
			Help: "報告されたバグの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.usersRegistered,
		c.logins,
		c.projectsCreated,
		c.bugsReported,
	)

	return c
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered() {
	c.usersRegistered.Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordProjectCreated はプロジェクト作成を記録する。
func (c *Collector) RecordProjectCreated() {
	c.projectsCreated.Inc()
}

// RecordBugReported はバグ報告を記録する。
func (c *Collector) RecordBugReported() {
	c.bugsReported.Inc()
}

// RecordHTTPRequest はHTTPリクエストの結果を記録する。
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// Middleware はリクエストごとにHTTPメトリクスを記録するミドルウェアを返す。
// パスラベルには実パスではなくchiのルートパターンを使用し、カーディナリティの
// 爆発を防ぐ。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := middleware.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			c.RecordHTTPRequest(r.Method, path, rec.Status(), time.Since(start))
		})
	}
}

// Handler はメトリクス公開用のHTTPハンドラーを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
