package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

// JobSystem runs jobs on a fixed pool of workers. Jobs must not wait on other
// jobs: with every worker blocked nothing would drain the queue.
type JobSystem struct {
	numWorkers int
	jobQueue   chan metadata.JobTask
	wg         sync.WaitGroup

	mutex    sync.RWMutex
	isClosed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system already shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan metadata.JobTask, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	js.start()

	return js, nil
}

// NumWorkers returns the size of the worker pool.
func (js *JobSystem) NumWorkers() int {
	return js.numWorkers
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job metadata.JobTask) {
	results := make(chan interface{}, 1)
	err := job.OnStart(job.InputParams, results)
	if err != nil {
		core.LogError("%s", err)
		if job.OnFailure != nil {
			job.OnFailure(results)
		}
	} else {
		if job.OnComplete != nil {
			job.OnComplete(results)
		}
	}

	// Call the completion callback if set
	if job.OnCompletionCallback != nil {
		job.OnCompletionCallback()
	}
}

/**
 * @brief Shuts the job system down. Waits for queued jobs to finish.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.isClosed {
		js.mutex.Unlock()
		return ErrJobSystemClosed
	}
	js.isClosed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	if jt.OnStart == nil {
		return fmt.Errorf("%w: job without entry point", core.ErrInvalidArgument)
	}
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.isClosed {
		return ErrJobSystemClosed
	}
	js.jobQueue <- jt
	return nil
}
