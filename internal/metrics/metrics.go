// Package metrics собирает prometheus-метрики HTTP-слоя и событий форума
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	duration *prometheus.SummaryVec
	requests *prometheus.CounterVec
	votes    *prometheus.CounterVec
	comments *prometheus.CounterVec
}

// New регистрирует метрики в собственном реестре, чтобы тесты могли создавать их повторно
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	labels := []string{"method", "path", "status_code"}
	return &Metrics{
		registry: reg,
		duration: factory.NewSummaryVec(prometheus.SummaryOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		}, labels),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, labels),
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threadly_votes_total",
			Help: "Votes cast by target kind and resulting user vote",
		}, []string{"target", "vote"}),
		comments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threadly_comment_events_total",
			Help: "Comment tree changes by event type",
		}, []string{"type"}),
	}
}

func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := strconv.Itoa(statusOf(c, err))

			m.duration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(c.Request().Method, path, status).Inc()
			return err
		}
	}
}

// statusOf - код ответа до того, как ошибку обработает HTTPErrorHandler
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func (m *Metrics) VoteCast(kind model.TargetKind, result model.Vote) {
	vote := string(result)
	if vote == "" {
		vote = "none"
	}
	m.votes.WithLabelValues(string(kind), vote).Inc()
}

func (m *Metrics) CommentEvent(t model.EventType) {
	m.comments.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
