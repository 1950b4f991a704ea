package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gymflow"

var (
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route pattern and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "query_duration_seconds",
		Help:      "Latency of SQLite calls by database/sql operation, statement verb and table.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"op", "verb", "table"})

	queryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "query_errors_total",
		Help:      "SQLite calls that returned an error, by table. SQLITE_BUSY shows up here first.",
	}, []string{"table"})

	classesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "classes_created_total",
		Help:      "Classes persisted, by creation path (single or recurring).",
	}, []string{"path"})

	classesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "classes_deleted_total",
		Help:      "Classes removed from the schedule.",
	})

	schedulingRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "rejections_total",
		Help:      "Scheduling requests or dates refused, by reason.",
	}, []string{"reason"})

	blockedDates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "blocked_dates",
		Help:      "Number of dates currently blocked for scheduling.",
	})

	outboxDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "deliveries_total",
		Help:      "Outbox delivery attempts by result.",
	}, []string{"result"})

	changeFeedDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "changefeed",
		Name:      "dropped_events_total",
		Help:      "Change events dropped because a subscriber was not keeping up.",
	})
)

func init() {
	prometheus.MustRegister(
		requestDuration,
		queryDuration,
		queryErrors,
		classesCreated,
		classesDeleted,
		schedulingRejections,
		blockedDates,
		outboxDeliveries,
		changeFeedDrops,
	)
}

// Rejection reasons.
const (
	ReasonBlocked    = "blocked"
	ReasonConflict   = "conflict"
	ReasonDailyCap   = "daily_cap"
	ReasonValidation = "validation"
	ReasonHasClasses = "date_has_classes"
)

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery records one storage call against table.
func ObserveQuery(op, verb, table string, d time.Duration, err error) {
	queryDuration.WithLabelValues(op, verb, table).Observe(d.Seconds())
	if err != nil {
		queryErrors.WithLabelValues(table).Inc()
	}
}

// RecordClassesCreated counts n classes created via path ("single", "recurring", "import", "seed").
func RecordClassesCreated(path string, n int) {
	if n <= 0 {
		return
	}
	classesCreated.WithLabelValues(path).Add(float64(n))
}

// RecordClassDeleted counts one deletion.
func RecordClassDeleted() {
	classesDeleted.Inc()
}

// RecordRejection counts a refused scheduling operation.
func RecordRejection(reason string) {
	schedulingRejections.WithLabelValues(reason).Inc()
}

// SetBlockedDates publishes the current registry size.
func SetBlockedDates(n int) {
	blockedDates.Set(float64(n))
}

// RecordOutboxDelivery counts a delivery attempt; result is "sent" or "failed".
func RecordOutboxDelivery(result string) {
	outboxDeliveries.WithLabelValues(result).Inc()
}

// RecordChangeFeedDrop counts an event a slow subscriber missed.
func RecordChangeFeedDrop() {
	changeFeedDrops.Inc()
}
