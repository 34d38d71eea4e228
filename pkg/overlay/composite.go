package overlay

import (
	"errors"
	"fmt"
	"math"

	"ctoverlay/internal/models"
)

// DefaultAlpha is the overlay opacity used when none is configured
const DefaultAlpha = 0.3

// ErrInvalidAlpha is returned for an opacity outside [0, 1]
var ErrInvalidAlpha = errors.New("alpha must be within [0, 1]")

// Composite alpha-blends color onto gray wherever the mask is non-zero.
//
// The selector is per voxel, not per channel: a labelled voxel has all
// three channels set to round((1-alpha)*gray + alpha*color), an unlabelled
// one keeps gray unchanged.
func Composite(gray *models.RGBVolume, mask *models.MaskVolume, color *models.ColorVolume, alpha float64) (*models.RGBVolume, error) {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
	}
	if err := gray.Validate(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if err := color.Validate(); err != nil {
		return nil, err
	}
	if err := models.SameShape("gray vs mask", gray.Shape, mask.Shape); err != nil {
		return nil, err
	}
	if err := models.SameShape("gray vs color", gray.Shape, color.Shape); err != nil {
		return nil, err
	}

	out := models.NewRGBVolume(gray.Shape)
	copy(out.Data, gray.Data)

	keep := 1 - alpha
	for i, v := range mask.Data {
		if v <= 0 {
			continue
		}
		j := i * models.Channels
		for ch := 0; ch < models.Channels; ch++ {
			blended := keep*float64(gray.Data[j+ch]) + alpha*float64(color.Data[j+ch])
			out.Data[j+ch] = truncByte(math.Round(blended))
		}
	}
	return out, nil
}
