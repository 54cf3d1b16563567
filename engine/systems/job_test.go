package systems

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

func TestNewJobSystemErrors(t *testing.T) {
	_, err := NewJobSystem(0, 4)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewJobSystem(2, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsJobs(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, js.NumWorkers())

	var sum atomic.Int64
	var completed atomic.Int32
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		err := js.Submit(metadata.JobTask{
			InputParams: i,
			OnStart: func(params interface{}, results chan<- interface{}) error {
				results <- params.(int) * 2
				return nil
			},
			OnComplete: func(results <-chan interface{}) {
				sum.Add(int64((<-results).(int)))
			},
			OnCompletionCallback: func() {
				completed.Add(1)
				wg.Done()
			},
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int64(100*101), sum.Load())
	assert.Equal(t, int32(100), completed.Load())
	require.NoError(t, js.Shutdown())
}

func TestJobSystemFailure(t *testing.T) {
	core.SetLogOutput(io.Discard)
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	boom := errors.New("boom")
	failed := make(chan interface{}, 1)
	require.NoError(t, js.Submit(metadata.JobTask{
		OnStart: func(params interface{}, results chan<- interface{}) error {
			results <- "partial"
			return boom
		},
		OnComplete: func(results <-chan interface{}) {
			t.Error("OnComplete called for a failed job")
		},
		OnFailure: func(results <-chan interface{}) {
			failed <- <-results
		},
	}))
	assert.Equal(t, "partial", <-failed)
}

func TestJobSystemLogsErrorVerbatim(t *testing.T) {
	var buf bytes.Buffer
	core.SetLogOutput(&buf)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })

	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	failed := make(chan struct{})
	require.NoError(t, js.Submit(metadata.JobTask{
		OnStart: func(params interface{}, results chan<- interface{}) error {
			return errors.New("obj /meshes/100%done.obj: bad face")
		},
		OnFailure: func(results <-chan interface{}) {
			close(failed)
		},
	}))
	<-failed

	assert.Contains(t, buf.String(), "obj /meshes/100%done.obj: bad face")
	assert.NotContains(t, buf.String(), "MISSING")
}

func TestJobSystemShutdown(t *testing.T) {
	js, err := NewJobSystem(2, 2)
	require.NoError(t, err)

	err = js.Submit(metadata.JobTask{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	require.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Shutdown(), ErrJobSystemClosed)

	err = js.Submit(metadata.JobTask{OnStart: func(interface{}, chan<- interface{}) error { return nil }})
	assert.ErrorIs(t, err, ErrJobSystemClosed)
}
