// Package stats computes per-label intensity statistics of a scan.
package stats

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"ctoverlay/internal/models"
	"ctoverlay/pkg/labels"
)

// Region summarises the raw intensities of the voxels carrying one label
type Region struct {
	Label labels.Label

	// Count is the number of voxels in the region of interest
	Count int

	// Mean and Std are NaN when Count is zero
	Mean float64
	Std  float64
}

// Empty reports whether no voxel carried the label
func (r Region) Empty() bool {
	return r.Count == 0
}

// RegionStats holds one Region per configured label, in ascending id order
type RegionStats []Region

// ByName returns the region of the label with the given name
func (rs RegionStats) ByName(name string) (Region, bool) {
	for _, r := range rs {
		if r.Label.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Compute returns the arithmetic mean and population standard deviation of
// the volume's intensities under each label of the mask. The same call
// serves a single slice or the whole volume.
//
// A label absent from the mask yields a NaN mean and standard deviation
// rather than an error.
func Compute(volume *models.Volume, mask *models.MaskVolume, set *labels.Set) (RegionStats, error) {
	if err := volume.Validate(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if err := models.SameShape("volume vs mask", volume.Shape, mask.Shape); err != nil {
		return nil, err
	}

	ls := set.Labels()
	rois := make(map[int32][]float64, len(ls))
	for i, id := range mask.Data {
		if _, ok := set.Lookup(id); ok {
			rois[id] = append(rois[id], volume.Data[i])
		}
	}

	out := make(RegionStats, 0, len(ls))
	for _, l := range ls {
		roi := rois[l.ID]
		r := Region{Label: l, Count: len(roi), Mean: math.NaN(), Std: math.NaN()}
		if len(roi) > 0 {
			r.Mean, r.Std = stat.PopMeanStdDev(roi, nil)
		}
		out = append(out, r)
	}
	return out, nil
}

// ComputeSlice runs Compute on slice z of the volume and its mask
func ComputeSlice(volume *models.Volume, mask *models.MaskVolume, z int, set *labels.Set) (RegionStats, error) {
	if err := models.SameShape("volume vs mask", volume.Shape, mask.Shape); err != nil {
		return nil, err
	}
	vs, err := volume.Slice(z)
	if err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	ms, err := mask.Slice(z)
	if err != nil {
		return nil, fmt.Errorf("mask: %w", err)
	}
	return Compute(vs, ms, set)
}

// FormatMeanStd renders "mean±std" with one decimal. NaN prints as "nan".
func FormatMeanStd(mean, std float64) string {
	return formatValue(mean) + "±" + formatValue(std)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
