package core

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		_ = SetLogLevel("info")
		SetLogOutput(os.Stderr)
	})

	assert.ErrorIs(t, SetLogLevel("verbose"), ErrInvalidArgument)

	require.NoError(t, SetLogLevel("warn"))
	LogInfo("hidden %d", 1)
	assert.Empty(t, buf.String())

	LogWarn("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")

	require.NoError(t, SetLogLevel("debug"))
	LogDebug("detail")
	assert.Contains(t, buf.String(), "detail")
}

func TestNewBuildID(t *testing.T) {
	a, b := NewBuildID(), NewBuildID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Stop()
	elapsed := c.Elapsed()
	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond)

	// A stopped clock keeps its reading
	c.Update()
	assert.Equal(t, elapsed, c.Elapsed())
}

func TestMetricsRollingAverage(t *testing.T) {
	require.NoError(t, MetricsInitialize())
	before := MetricsBuilds()

	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsRecordBuild("tree", 4*time.Millisecond)
	}
	assert.Equal(t, before+int64(AVG_COUNT), MetricsBuilds())
	assert.InDelta(t, 4.0, MetricsBuildTime(), 1e-9)

	MetricsRecordSplit("binning", true)
	MetricsRecordLeaf(4)
}
