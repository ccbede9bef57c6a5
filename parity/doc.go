// Package parity verifies that a score only cites evidence the
// ranking actually surfaced. It backs the rubric scorer's precondition
// gate and doubles as a standalone audit over persisted scores.
package parity
