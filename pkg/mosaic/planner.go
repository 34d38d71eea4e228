// Package mosaic decides which slices of an overlay volume are reviewed,
// where each lands in a grid and what its caption says. It draws nothing;
// a renderer consumes the resulting Plan.
package mosaic

import (
	"errors"
	"fmt"
	"strings"

	"ctoverlay/internal/models"
	"ctoverlay/pkg/labels"
	"ctoverlay/pkg/stats"
)

// Defaults of the review grid
const (
	DefaultCols       = 5
	DefaultDisplayNum = 25
)

// ErrInvalidLayout is returned for a non-positive column or tile count
var ErrInvalidLayout = errors.New("invalid mosaic layout")

// Tile is one reviewed slice and its grid position
type Tile struct {
	// Index is the slice index along the depth axis
	Index int

	Row, Col int

	Image *models.RGBVolume
	Title string
	Stats stats.RegionStats
}

// Plan is a row-major grid of tiles. Tiles may be fewer than Rows*Cols; the
// remaining cells are left to the renderer to blank.
type Plan struct {
	Rows, Cols int
	Tiles      []Tile
}

// GridRows returns ceil(displayNum / cols)
func GridRows(displayNum, cols int) int {
	return (displayNum-1)/cols + 1
}

// SampleIndices spreads displayNum samples evenly over total slices. The
// stride never drops below one slice, so when displayNum exceeds total
// every slice is returned once and the sequence ends early.
func SampleIndices(total, displayNum int) []int {
	interval := float64(total) / float64(displayNum)
	if interval < 1 {
		interval = 1
	}

	indices := make([]int, 0, min(total, displayNum))
	for i := 0; i < displayNum; i++ {
		idx := int(float64(i) * interval)
		if idx >= total {
			break
		}
		indices = append(indices, idx)
	}
	return indices
}

// Title captions a slice with its index and every region's mean±std
func Title(idx int, rs stats.RegionStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "slice #:%d", idx)
	for _, r := range rs {
		fmt.Fprintf(&b, "\n%s mean: %s", r.Label.Name, stats.FormatMeanStd(r.Mean, r.Std))
	}
	return b.String()
}

// Build samples up to displayNum slices of the overlay and pairs each with
// a caption computed from the raw volume under the mask.
func Build(overlay *models.RGBVolume, raw *models.Volume, mask *models.MaskVolume, set *labels.Set, cols, displayNum int) (*Plan, error) {
	if cols <= 0 || displayNum <= 0 {
		return nil, fmt.Errorf("%w: cols=%d displayNum=%d", ErrInvalidLayout, cols, displayNum)
	}
	if err := overlay.Validate(); err != nil {
		return nil, err
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if err := models.SameShape("overlay vs volume", overlay.Shape, raw.Shape); err != nil {
		return nil, err
	}
	if err := models.SameShape("overlay vs mask", overlay.Shape, mask.Shape); err != nil {
		return nil, err
	}

	plan := &Plan{Rows: GridRows(displayNum, cols), Cols: cols}
	for i, idx := range SampleIndices(overlay.Shape.Depth, displayNum) {
		rs, err := stats.ComputeSlice(raw, mask, idx, set)
		if err != nil {
			return nil, fmt.Errorf("slice %d: %w", idx, err)
		}
		plan.Tiles = append(plan.Tiles, Tile{
			Index: idx,
			Row:   i / cols,
			Col:   i % cols,
			Image: sliceOf(overlay, idx),
			Title: Title(idx, rs),
			Stats: rs,
		})
	}
	return plan, nil
}

// sliceOf copies slice z of v into a single-slice volume
func sliceOf(v *models.RGBVolume, z int) *models.RGBVolume {
	n := v.Shape.Rows * v.Shape.Cols * models.Channels
	out := models.NewRGBVolume(v.Shape.SliceShape())
	copy(out.Data, v.Data[z*n:(z+1)*n])
	return out
}
