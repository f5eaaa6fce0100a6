package main

import (
	"errors"
	"fmt"
)

// Sentinel errors used for failure classification. ErrInvalidInput and
// ErrNotFound are fatal before any conversion starts; the per-file codec
// errors are counted and the batch continues.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrDecode       = errors.New("decode failed")
	ErrEncode       = errors.New("encode failed")
	ErrWrite        = errors.New("write failed")
)

// wrapStage tags err with a sentinel marker and a short stage label, keeping
// the underlying library message intact for diagnosability.
func wrapStage(marker error, stage string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, stage, err)
	}
	return fmt.Errorf("%w: %s", marker, stage)
}
