package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tasks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhandler_tasks_total",
		Help: "Task submissions by round and outcome",
	}, []string{"round", "status"})
	taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskhandler_task_duration_seconds",
		Help:    "End-to-end task handling time",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"round"})
	llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhandler_llm_calls_total",
		Help: "Completion API calls by outcome",
	}, []string{"status"})
	githubRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhandler_github_requests_total",
		Help: "GitHub API requests by operation and outcome",
	}, []string{"operation", "status"})
	callbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhandler_callback_deliveries_total",
		Help: "Evaluation callback deliveries by outcome",
	}, []string{"status"})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhandler_http_requests_total",
		Help: "HTTP requests served by path and status code",
	}, []string{"path", "code"})
)

func init() {
	prometheus.MustRegister(tasks, taskDuration, llmCalls, githubRequests, callbacks, httpRequests)
}

// Start runs a Prometheus handler on the given listen addr. An empty addr
// disables the endpoint.
func Start(ctx context.Context, listen string, log *slog.Logger) error {
	if listen == "" {
		return nil
	}
	srv := &http.Server{Addr: listen, Handler: promhttp.Handler()}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", slog.String("err", err.Error()))
			}
		}
	}()
	return nil
}

func IncTask(round int, status string) {
	tasks.WithLabelValues(strconv.Itoa(round), status).Inc()
}

func ObserveTaskDuration(round int, d time.Duration) {
	taskDuration.WithLabelValues(strconv.Itoa(round)).Observe(d.Seconds())
}

func IncLLM(status string) { llmCalls.WithLabelValues(status).Inc() }

func IncGitHub(operation, status string) {
	githubRequests.WithLabelValues(operation, status).Inc()
}

func IncCallback(status string) { callbacks.WithLabelValues(status).Inc() }

func IncHTTP(path string, code int) {
	httpRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
