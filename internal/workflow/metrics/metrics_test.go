package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectors_AllFieldsNonNil(t *testing.T) {
	c := NewCollectors()
	require.NotNil(t, c.TasksStarted)
	require.NotNil(t, c.TasksFinished)
	require.NotNil(t, c.StepDuration)
	require.NotNil(t, c.StepFailures)
	require.NotNil(t, c.RetryAttempts)
	require.NotNil(t, c.PersistErrors)
	require.NotNil(t, c.ArchiveErrors)
}

func TestCollectors_MustRegisterSucceedsOnce(t *testing.T) {
	c := NewCollectors()
	reg := prometheus.NewRegistry()

	assert.NotPanics(t, func() { c.MustRegister(reg) })
}

func TestCollectors_MustRegisterPanicsOnDuplicate(t *testing.T) {
	c := NewCollectors()
	reg := prometheus.NewRegistry()
	c.MustRegister(reg)

	assert.Panics(t, func() { c.MustRegister(reg) })
}

func TestCollectors_TasksStartedIncrementsByMode(t *testing.T) {
	c := NewCollectors()
	c.TasksStarted.WithLabelValues("non_reasoning").Inc()
	c.TasksStarted.WithLabelValues("non_reasoning").Inc()

	m := &dto.Metric{}
	require.NoError(t, c.TasksStarted.WithLabelValues("non_reasoning").Write(m))
	assert.Equal(t, 2.0, m.GetCounter().GetValue())
}
