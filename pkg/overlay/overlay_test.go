package overlay

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctoverlay/internal/models"
	"ctoverlay/pkg/labels"
)

// randomVolume fills a volume with CT-like intensities in [-1024, 3071]
func randomVolume(rng *rand.Rand, shape models.Shape) *models.Volume {
	v := models.NewVolume(shape)
	for i := range v.Data {
		v.Data[i] = rng.Float64()*4095 - 1024
	}
	return v
}

// randomMask draws labels 0..4 so that one unknown label (4) is present
func randomMask(rng *rand.Rand, shape models.Shape) *models.MaskVolume {
	m := models.NewMaskVolume(shape)
	for i := range m.Data {
		m.Data[i] = int32(rng.Intn(5))
	}
	return m
}

func TestNormalizeRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shapes := []models.Shape{
		{Rows: 1, Cols: 1, Depth: 1},
		{Rows: 4, Cols: 3, Depth: 2},
		{Rows: 16, Cols: 16, Depth: 5},
	}

	for _, shape := range shapes {
		vol := randomVolume(rng, shape)
		gray, err := Normalize(vol)
		require.NoError(t, err)
		require.Equal(t, shape, gray.Shape)
		require.Len(t, gray.Data, shape.Voxels()*models.Channels)

		for i := 0; i < shape.Voxels(); i++ {
			j := i * models.Channels
			assert.Equal(t, gray.Data[j], gray.Data[j+1])
			assert.Equal(t, gray.Data[j], gray.Data[j+2])
		}
	}
}

func TestNormalizeEndpoints(t *testing.T) {
	vol := models.NewVolume(models.Shape{Rows: 1, Cols: 4, Depth: 1})
	copy(vol.Data, []float64{-1000, 0, 500, 1000})

	gray, err := Normalize(vol)
	require.NoError(t, err)

	// (v - lo) / (hi - lo) * 255, truncated
	want := []uint8{0, 127, 191, 255}
	for i, w := range want {
		assert.Equal(t, w, gray.RGB(0, i, 0)[0], "voxel %d", i)
	}
}

func TestNormalizeConstantVolume(t *testing.T) {
	vol := models.NewVolume(models.Shape{Rows: 3, Cols: 3, Depth: 2})
	for i := range vol.Data {
		vol.Data[i] = -600
	}

	gray, err := Normalize(vol)
	require.NoError(t, err)
	for _, b := range gray.Data {
		assert.Zero(t, b)
	}
}

func TestNormalizeRejectsBadBacking(t *testing.T) {
	vol := &models.Volume{Data: make([]float64, 5), Shape: models.Shape{Rows: 2, Cols: 2, Depth: 2}}
	_, err := Normalize(vol)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestColorizeExact(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	shape := models.Shape{Rows: 8, Cols: 6, Depth: 3}
	mask := randomMask(rng, shape)
	set := labels.Default()

	color, err := Colorize(mask, set)
	require.NoError(t, err)
	require.Equal(t, shape, color.Shape)

	for z := 0; z < shape.Depth; z++ {
		for r := 0; r < shape.Rows; r++ {
			for c := 0; c < shape.Cols; c++ {
				got := color.RGB(r, c, z)
				l, ok := set.Lookup(mask.At(r, c, z))
				if !ok {
					assert.Equal(t, [3]float32{}, got, "unlabelled voxel (%d,%d,%d)", r, c, z)
					continue
				}
				want := [3]float32{float32(l.Color[0]), float32(l.Color[1]), float32(l.Color[2])}
				assert.Equal(t, want, got, "label %d at (%d,%d,%d)", l.ID, r, c, z)
			}
		}
	}
}

func TestColorizeIgnoresUnknownLabels(t *testing.T) {
	mask := models.NewMaskVolume(models.Shape{Rows: 1, Cols: 3, Depth: 1})
	copy(mask.Data, []int32{-2, 9, 1})

	color, err := Colorize(mask, labels.Default())
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0, 255, 0, 0}, color.Data)
}

func TestColorizeForShapeMismatch(t *testing.T) {
	vol := models.NewVolume(models.Shape{Rows: 2, Cols: 2, Depth: 2})
	mask := models.NewMaskVolume(models.Shape{Rows: 2, Cols: 2, Depth: 3})

	color, err := ColorizeFor(vol, mask, labels.Default())
	assert.Nil(t, color)
	require.Error(t, err)

	var sme *models.ShapeMismatchError
	require.True(t, errors.As(err, &sme))
	assert.Equal(t, "volume vs mask", sme.Op)
}

func TestCompositeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	shape := models.Shape{Rows: 10, Cols: 7, Depth: 4}
	vol := randomVolume(rng, shape)
	mask := randomMask(rng, shape)
	set := labels.Default()

	gray, err := Normalize(vol)
	require.NoError(t, err)
	color, err := Colorize(mask, set)
	require.NoError(t, err)

	grayBefore := append([]uint8(nil), gray.Data...)

	for _, alpha := range []float64{0, DefaultAlpha, 0.5, 1} {
		out, err := Composite(gray, mask, color, alpha)
		require.NoError(t, err)
		require.Equal(t, shape, out.Shape)

		for i, label := range mask.Data {
			j := i * models.Channels
			for ch := 0; ch < models.Channels; ch++ {
				g := float64(gray.Data[j+ch])
				got := float64(out.Data[j+ch])
				if label == 0 {
					require.Equal(t, g, got, "pass-through at voxel %d", i)
					continue
				}
				want := math.Round((1-alpha)*g + alpha*float64(color.Data[j+ch]))
				require.InDelta(t, want, got, 1, "blend at voxel %d alpha %v", i, alpha)
			}
		}
	}

	assert.Equal(t, grayBefore, gray.Data, "inputs must not be mutated")
}

func TestCompositeBlendsAllChannels(t *testing.T) {
	shape := models.Shape{Rows: 1, Cols: 2, Depth: 1}
	gray := models.NewRGBVolume(shape)
	copy(gray.Data, []uint8{100, 100, 100, 100, 100, 100})
	mask := models.NewMaskVolume(shape)
	copy(mask.Data, []int32{0, 2})

	color, err := Colorize(mask, labels.Default())
	require.NoError(t, err)

	out, err := Composite(gray, mask, color, DefaultAlpha)
	require.NoError(t, err)

	// 0.7*100 + 0.3*0 = 70, 0.7*100 + 0.3*255 = 146.5 -> 147
	assert.Equal(t, []uint8{100, 100, 100, 70, 147, 70}, out.Data)
}

func TestCompositeNegativeLabelPassesThrough(t *testing.T) {
	shape := models.Shape{Rows: 1, Cols: 3, Depth: 1}
	gray := models.NewRGBVolume(shape)
	copy(gray.Data, []uint8{40, 40, 40, 90, 90, 90, 200, 200, 200})
	mask := models.NewMaskVolume(shape)
	copy(mask.Data, []int32{-1, -7, 0})

	color, err := Colorize(mask, labels.Default())
	require.NoError(t, err)

	out, err := Composite(gray, mask, color, DefaultAlpha)
	require.NoError(t, err)
	assert.Equal(t, gray.Data, out.Data)
}

func TestCompositeShapeMismatch(t *testing.T) {
	gray := models.NewRGBVolume(models.Shape{Rows: 2, Cols: 2, Depth: 1})
	mask := models.NewMaskVolume(models.Shape{Rows: 2, Cols: 3, Depth: 1})
	color := models.NewColorVolume(models.Shape{Rows: 2, Cols: 3, Depth: 1})

	out, err := Composite(gray, mask, color, DefaultAlpha)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	mask = models.NewMaskVolume(gray.Shape)
	out, err = Composite(gray, mask, color, DefaultAlpha)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCompositeRejectsAlpha(t *testing.T) {
	shape := models.Shape{Rows: 1, Cols: 1, Depth: 1}
	gray := models.NewRGBVolume(shape)
	mask := models.NewMaskVolume(shape)
	color := models.NewColorVolume(shape)

	for _, alpha := range []float64{-0.1, 1.5, math.NaN()} {
		_, err := Composite(gray, mask, color, alpha)
		assert.ErrorIs(t, err, ErrInvalidAlpha)
	}
}
