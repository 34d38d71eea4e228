package models

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is matched by every ShapeMismatchError
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeMismatchError reports two arrays (or a color triple) whose extents
// disagree. It aborts the operation that raised it; no partial result is
// produced.
type ShapeMismatchError struct {
	// Op names the operation or operand that was rejected
	Op   string
	Want string
	Got  string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %v: want %s, got %s", e.Op, ErrShapeMismatch, e.Want, e.Got)
}

// Is lets errors.Is match ErrShapeMismatch
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// SameShape returns a ShapeMismatchError when a and b differ
func SameShape(op string, a, b Shape) error {
	if a == b {
		return nil
	}
	return &ShapeMismatchError{Op: op, Want: a.String(), Got: b.String()}
}
