package overlay

import (
	"ctoverlay/internal/models"
	"ctoverlay/pkg/labels"
)

// Colorize paints every voxel carrying a configured label with that
// label's color. Labels are applied in ascending id order, so a later
// label would win a voxel claimed twice. Mask values outside the set,
// negative ones included, stay background (0, 0, 0).
func Colorize(mask *models.MaskVolume, set *labels.Set) (*models.ColorVolume, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}

	out := models.NewColorVolume(mask.Shape)
	for _, l := range set.Labels() {
		r, g, b := float32(l.Color[0]), float32(l.Color[1]), float32(l.Color[2])
		for i, v := range mask.Data {
			if v != l.ID {
				continue
			}
			j := i * models.Channels
			out.Data[j] = r
			out.Data[j+1] = g
			out.Data[j+2] = b
		}
	}
	return out, nil
}

// ColorizeFor is Colorize preceded by a check that the mask lines up with
// the scan it annotates.
func ColorizeFor(volume *models.Volume, mask *models.MaskVolume, set *labels.Set) (*models.ColorVolume, error) {
	if err := CheckShapes(volume, mask); err != nil {
		return nil, err
	}
	return Colorize(mask, set)
}

// CheckShapes verifies that a scan and its mask are internally consistent
// and share the same (rows, cols, slices) extent.
func CheckShapes(volume *models.Volume, mask *models.MaskVolume) error {
	if err := volume.Validate(); err != nil {
		return err
	}
	if err := mask.Validate(); err != nil {
		return err
	}
	return models.SameShape("volume vs mask", volume.Shape, mask.Shape)
}
