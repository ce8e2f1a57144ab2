package domain

import "errors"

var (
	// ErrNoData means the pipeline ran to completion but produced no points:
	// upstream had nothing usable for the requested range.
	ErrNoData = errors.New("no data available for the requested range")

	// ErrProcessing wraps unexpected faults raised inside the pure stages, so
	// callers can tell "upstream had nothing" apart from "our own logic broke".
	ErrProcessing = errors.New("failed to process reservoir data")
)
