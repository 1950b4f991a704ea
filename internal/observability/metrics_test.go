package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordClassesCreated(t *testing.T) {
	before := testutil.ToFloat64(classesCreated.WithLabelValues("recurring"))
	RecordClassesCreated("recurring", 4)
	RecordClassesCreated("recurring", 0)
	require.Equal(t, before+4, testutil.ToFloat64(classesCreated.WithLabelValues("recurring")))
}

func TestRecordRejection(t *testing.T) {
	before := testutil.ToFloat64(schedulingRejections.WithLabelValues(ReasonConflict))
	RecordRejection(ReasonConflict)
	require.Equal(t, before+1, testutil.ToFloat64(schedulingRejections.WithLabelValues(ReasonConflict)))
}

func TestSetBlockedDates(t *testing.T) {
	SetBlockedDates(3)
	require.Equal(t, float64(3), testutil.ToFloat64(blockedDates))
}

func TestObserveQuery_CountsErrorsByTable(t *testing.T) {
	before := testutil.ToFloat64(queryErrors.WithLabelValues("outbox"))
	ObserveQuery("exec", "update", "outbox", time.Millisecond, nil)
	ObserveQuery("exec", "update", "outbox", time.Millisecond, errors.New("database is locked"))
	require.Equal(t, before+1, testutil.ToFloat64(queryErrors.WithLabelValues("outbox")))
}

func TestObserveRequest_UnmatchedRoute(t *testing.T) {
	ObserveRequest("GET", "", 404, 5*time.Millisecond)
	require.GreaterOrEqual(t, testutil.CollectAndCount(requestDuration, "gymflow_http_request_duration_seconds"), 1)
}
