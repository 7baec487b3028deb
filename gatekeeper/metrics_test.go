package gatekeeper

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeSend(&Response{Outcome: OutcomeReplayed}, nil, 10*time.Millisecond)
	m.observeSend(&Response{Outcome: OutcomeReplayed}, nil, 10*time.Millisecond)
	m.observeSend(nil, errors.New("boom"), time.Millisecond)
	m.observeRefresh("success")

	require.Equal(t, 2.0, testutil.ToFloat64(m.sends.WithLabelValues("replayed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.sends.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("success")))

	count, err := testutil.GatherAndCount(reg, "fintrack_gatekeeper_send_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.observeSend(&Response{}, nil, time.Second)
		m.observeRefresh("rejected")
	})
}

func TestMachine_PanicsOnIllegalTransition(t *testing.T) {
	m := machine{}
	m.to(PhaseAuthFailed)
	require.Panics(t, func() { m.to(PhaseReplaying) })
}
