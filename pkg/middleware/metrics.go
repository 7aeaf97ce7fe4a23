package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute はルートに一致しなかったリクエストのラベル値。
const unmatchedRoute = "unmatched"

// Metrics はHTTPリクエストと認証ゲートのPrometheusメトリクスを保持する。
type Metrics struct {
	// requestsTotal はメソッド・ルート・ステータス別のリクエスト数。
	requestsTotal *prometheus.CounterVec
	// requestDuration はメソッド・ルート別の処理時間。
	requestDuration *prometheus.HistogramVec
	// gateDecisions は認証ゲートの判定結果別の件数。
	gateDecisions *prometheus.CounterVec
}

// NewMetrics はメトリクスを生成してレジストリに登録する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identity_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "identity_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identity_auth_gate_decisions_total",
				Help: "Total number of authentication gate decisions by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.gateDecisions)
	return m
}

// Handler はリクエスト数と処理時間を記録するGinミドルウェアを返す。
// ラベルにはURLではなくルート定義上のパスを使い、カーディナリティを抑える。
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())

		m.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveGate は認証ゲートの判定結果を記録する。
func (m *Metrics) ObserveGate(outcome GateOutcome) {
	m.gateDecisions.WithLabelValues(string(outcome)).Inc()
}
