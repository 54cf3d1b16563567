package metadata

/** @brief Entry point of a job. Results are written to the provided channel. */
type JobStart func(params interface{}, results chan<- interface{}) error

/** @brief Invoked with the job's result channel after the job ran. */
type JobOnComplete func(results <-chan interface{})

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked when OnStart returned no error. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when OnStart returned an error. Optional. */
	OnFailure JobOnComplete
	/** @brief Invoked after OnComplete/OnFailure regardless of the outcome. Optional. */
	OnCompletionCallback func()
}
