// Package pipeline schedules batch scoring runs. Partitions are
// mutually independent, so requests fan out over a worker pool; within
// a partition the normalize-rank-score chain stays strictly
// sequential. Lock conflicts from concurrent normalizer runs are
// retried with backoff, and a cancelled batch stops submitting new
// partitions while letting in-flight ones complete.
package pipeline
