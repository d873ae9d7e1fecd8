package domain

import "errors"

var (
	// ErrInvalidParameterRange reports min > max on a ranged field or a
	// non-positive horizon/iteration count. Surfaced before any simulation runs.
	ErrInvalidParameterRange = errors.New("invalid parameter range")

	// ErrAggregationInputEmpty reports an aggregation over zero scenarios.
	ErrAggregationInputEmpty = errors.New("aggregation input is empty")

	// ErrResourceExhausted reports an iteration count too large for the
	// available compute budget. Never silently truncated.
	ErrResourceExhausted = errors.New("resource budget exhausted")
)
