// Package storage defines the persistence contracts for price bars and run
// artifacts. Run artifacts are written once per run and never updated.
package storage

import "errors"

var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a run id, a (run_id, trade_id) pair,
	// a (symbol, date) bar or a (run_id, date) equity point already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for rows missing their key fields.
	ErrInvalidInput = errors.New("invalid input")
)
