package service

import "errors"

// DefaultMaxBatch is the largest batch accepted unless WithMaxBatch says otherwise.
const DefaultMaxBatch = 100

// Sentinel errors for this package.
var (
	ErrEmptyBatch    = errors.New("batch has no records")
	ErrBatchTooLarge = errors.New("batch too large")
)
