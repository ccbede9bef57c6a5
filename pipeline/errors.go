package pipeline

import "errors"

var (
	ErrPartitionFuncRequired = errors.New("partition func is required")
	ErrInvalidWorkerCount    = errors.New("worker count must be >= 1")
)
