// Package overlay turns a raw scan volume and a label mask into a
// color-coded 8-bit overlay.
//
// The three stages are independent pure functions:
//
//	gray := Normalize(volume)             // intensity -> 8-bit grayscale, 3 channels
//	color := Colorize(mask, labels)       // label -> RGB
//	out := Composite(gray, mask, color, alpha)
//
// Every stage allocates its result and never mutates its inputs.
package overlay

import "ctoverlay/internal/models"

// ErrShapeMismatch is matched (via errors.Is) by every structural error
// returned from this package.
var ErrShapeMismatch = models.ErrShapeMismatch
