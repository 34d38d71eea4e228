package models

import (
	"fmt"
	"image"
)

// Shape is the canonical (row, column, slice) extent of a volume
type Shape struct {
	Rows  int
	Cols  int
	Depth int
}

// Voxels returns the number of voxels covered by the shape
func (s Shape) Voxels() int {
	return s.Rows * s.Cols * s.Depth
}

// SliceShape returns the shape of a single slice along the depth axis
func (s Shape) SliceShape() Shape {
	return Shape{Rows: s.Rows, Cols: s.Cols, Depth: 1}
}

// Index returns the flat offset of voxel (r, c, z).
// Slices are stored contiguously: z*Rows*Cols + r*Cols + c.
func (s Shape) Index(r, c, z int) int {
	return z*s.Rows*s.Cols + r*s.Cols + c
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Rows, s.Cols, s.Depth)
}

// Volume holds raw scan intensities (radiodensity units)
type Volume struct {
	// Data is the intensity of every voxel in slice-contiguous order
	Data []float64

	Shape Shape
}

// NewVolume allocates a zero-filled volume of the given shape
func NewVolume(shape Shape) *Volume {
	return &Volume{Data: make([]float64, shape.Voxels()), Shape: shape}
}

// Validate reports whether the backing slice matches the declared shape
func (v *Volume) Validate() error {
	return checkLen("volume", v.Shape, len(v.Data), 1)
}

// At returns the intensity at (r, c, z)
func (v *Volume) At(r, c, z int) float64 {
	return v.Data[v.Shape.Index(r, c, z)]
}

// Set stores the intensity at (r, c, z)
func (v *Volume) Set(r, c, z int, value float64) {
	v.Data[v.Shape.Index(r, c, z)] = value
}

// Slice returns a copy of slice z as a single-slice volume
func (v *Volume) Slice(z int) (*Volume, error) {
	if z < 0 || z >= v.Shape.Depth {
		return nil, fmt.Errorf("slice %d out of range [0, %d)", z, v.Shape.Depth)
	}
	n := v.Shape.Rows * v.Shape.Cols
	out := NewVolume(v.Shape.SliceShape())
	copy(out.Data, v.Data[z*n:(z+1)*n])
	return out, nil
}

// MaskVolume holds integer region labels; 0 is background
type MaskVolume struct {
	Data []int32

	Shape Shape
}

// NewMaskVolume allocates an all-background mask of the given shape
func NewMaskVolume(shape Shape) *MaskVolume {
	return &MaskVolume{Data: make([]int32, shape.Voxels()), Shape: shape}
}

// Validate reports whether the backing slice matches the declared shape
func (m *MaskVolume) Validate() error {
	return checkLen("mask", m.Shape, len(m.Data), 1)
}

// At returns the label at (r, c, z)
func (m *MaskVolume) At(r, c, z int) int32 {
	return m.Data[m.Shape.Index(r, c, z)]
}

// Set stores the label at (r, c, z)
func (m *MaskVolume) Set(r, c, z int, label int32) {
	m.Data[m.Shape.Index(r, c, z)] = label
}

// Slice returns a copy of slice z as a single-slice mask
func (m *MaskVolume) Slice(z int) (*MaskVolume, error) {
	if z < 0 || z >= m.Shape.Depth {
		return nil, fmt.Errorf("slice %d out of range [0, %d)", z, m.Shape.Depth)
	}
	n := m.Shape.Rows * m.Shape.Cols
	out := NewMaskVolume(m.Shape.SliceShape())
	copy(out.Data, m.Data[z*n:(z+1)*n])
	return out, nil
}

// Channels is the number of trailing color channels of every color volume
const Channels = 3

// ColorVolume is a per-voxel RGB assignment with float channels
type ColorVolume struct {
	// Data holds Channels consecutive values per voxel
	Data []float32

	Shape Shape
}

// NewColorVolume allocates an all-black color volume
func NewColorVolume(shape Shape) *ColorVolume {
	return &ColorVolume{Data: make([]float32, shape.Voxels()*Channels), Shape: shape}
}

// Validate reports whether the backing slice matches the declared shape
func (cv *ColorVolume) Validate() error {
	return checkLen("color volume", cv.Shape, len(cv.Data), Channels)
}

// RGB returns the three channels of voxel (r, c, z)
func (cv *ColorVolume) RGB(r, c, z int) [Channels]float32 {
	i := cv.Shape.Index(r, c, z) * Channels
	return [Channels]float32{cv.Data[i], cv.Data[i+1], cv.Data[i+2]}
}

// RGBVolume is an 8-bit three-channel volume. It carries both the
// grayscale rendition of a scan and the composited overlay.
type RGBVolume struct {
	Data []uint8

	Shape Shape
}

// NewRGBVolume allocates an all-black 8-bit volume
func NewRGBVolume(shape Shape) *RGBVolume {
	return &RGBVolume{Data: make([]uint8, shape.Voxels()*Channels), Shape: shape}
}

// Validate reports whether the backing slice matches the declared shape
func (v *RGBVolume) Validate() error {
	return checkLen("rgb volume", v.Shape, len(v.Data), Channels)
}

// RGB returns the three channels of voxel (r, c, z)
func (v *RGBVolume) RGB(r, c, z int) [Channels]uint8 {
	i := v.Shape.Index(r, c, z) * Channels
	return [Channels]uint8{v.Data[i], v.Data[i+1], v.Data[i+2]}
}

// SliceImage converts slice z to an opaque RGBA image whose x axis runs
// along columns and y axis along rows
func (v *RGBVolume) SliceImage(z int) (*image.RGBA, error) {
	if z < 0 || z >= v.Shape.Depth {
		return nil, fmt.Errorf("slice %d out of range [0, %d)", z, v.Shape.Depth)
	}

	img := image.NewRGBA(image.Rect(0, 0, v.Shape.Cols, v.Shape.Rows))
	for r := 0; r < v.Shape.Rows; r++ {
		for c := 0; c < v.Shape.Cols; c++ {
			src := v.Shape.Index(r, c, z) * Channels
			dst := img.PixOffset(c, r)
			img.Pix[dst] = v.Data[src]
			img.Pix[dst+1] = v.Data[src+1]
			img.Pix[dst+2] = v.Data[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

func checkLen(what string, shape Shape, got, channels int) error {
	if shape.Rows < 0 || shape.Cols < 0 || shape.Depth < 0 {
		return fmt.Errorf("%s has negative extent %s", what, shape)
	}
	if want := shape.Voxels() * channels; got != want {
		return &ShapeMismatchError{
			Op:   what,
			Want: fmt.Sprintf("%d values for shape %s", want, shape),
			Got:  fmt.Sprintf("%d values", got),
		}
	}
	return nil
}
