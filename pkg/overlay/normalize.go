package overlay

import (
	"gonum.org/v1/gonum/floats"

	"ctoverlay/internal/models"
)

// RangeEpsilon floors the intensity range so a constant volume does not
// divide by zero.
const RangeEpsilon = 1e-3

// Normalize rescales the volume linearly so its minimum maps to 0 and its
// maximum to 255, truncating to 8 bits and replicating the value into all
// three channels.
//
// A constant volume yields all zeros. Non-finite intensities are not
// supported: NaN or Inf poisons the range and the resulting bytes are
// unspecified.
func Normalize(volume *models.Volume) (*models.RGBVolume, error) {
	if err := volume.Validate(); err != nil {
		return nil, err
	}

	out := models.NewRGBVolume(volume.Shape)
	if len(volume.Data) == 0 {
		return out, nil
	}

	lo := floats.Min(volume.Data)
	hi := floats.Max(volume.Data)
	denom := hi - lo
	if denom < RangeEpsilon {
		denom = RangeEpsilon
	}

	for i, v := range volume.Data {
		g := truncByte((v - lo) / denom * 255)
		j := i * models.Channels
		out.Data[j] = g
		out.Data[j+1] = g
		out.Data[j+2] = g
	}
	return out, nil
}

// truncByte drops the fractional part of v and clamps it to [0, 255]
func truncByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
