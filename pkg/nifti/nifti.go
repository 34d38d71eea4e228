// Package nifti decodes single-file NIfTI-1 volumes (.nii and .nii.gz)
// into the canonical (row, column, slice) layout.
//
// Voxel (i, j, k) of the file becomes row j, column i of slice k, which
// swaps the first two axes so slices display upright. Because the file
// stores i fastest, the on-disk order already matches the slice-contiguous
// layout of models.Volume and no reshuffling is needed.
package nifti

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"

	"ctoverlay/internal/models"
)

var (
	// ErrMalformed is wrapped by errors about truncated or inconsistent files
	ErrMalformed = errors.New("malformed nifti file")

	// ErrUnsupported is wrapped by errors about valid files this package cannot read
	ErrUnsupported = errors.New("unsupported nifti file")
)

const (
	headerSize = 348
	minOffset  = 352
)

// NIfTI-1 datatype codes
const (
	TypeUint8   = 2
	TypeInt16   = 4
	TypeInt32   = 8
	TypeFloat32 = 16
	TypeFloat64 = 64
	TypeInt8    = 256
	TypeUint16  = 512
	TypeUint32  = 768
	TypeInt64   = 1024
	TypeUint64  = 1280
)

// Header carries the fields of the NIfTI-1 header this package uses
type Header struct {
	Dim       [8]int16
	Datatype  int16
	Bitpix    int16
	Pixdim    [8]float32
	VoxOffset float32
	SclSlope  float32
	SclInter  float32
	Magic     string

	order binary.ByteOrder
}

// Image is a decoded file: its header and the scaled intensities
type Image struct {
	Header Header
	Volume *models.Volume
}

// Load reads a .nii or .nii.gz file. Gzip input is detected from its magic
// bytes rather than the file extension.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadMask reads a label file, rounding each voxel to the nearest integer
func LoadMask(path string) (*models.MaskVolume, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToMask(img.Volume), nil
}

// ToMask rounds every intensity to an integer label
func ToMask(v *models.Volume) *models.MaskVolume {
	m := models.NewMaskVolume(v.Shape)
	for i, x := range v.Data {
		m.Data[i] = int32(math.Round(x))
	}
	return m
}

// Decode reads a NIfTI-1 stream, optionally gzip compressed
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		defer zr.Close()
		r = zr
	} else {
		r = br
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	hdr, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	shape, err := hdr.shape()
	if err != nil {
		return nil, err
	}

	// The header's extent must be backed by the stream before allocating
	offset, width, err := hdr.voxelSpan(shape, len(raw))
	if err != nil {
		return nil, err
	}

	vol := models.NewVolume(shape)
	hdr.readVoxels(raw[offset:offset+len(vol.Data)*width], width, vol.Data)
	return &Image{Header: hdr, Volume: vol}, nil
}

func parseHeader(raw []byte) (Header, error) {
	var hdr Header
	if len(raw) < headerSize {
		return hdr, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(raw))
	}

	switch {
	case binary.LittleEndian.Uint32(raw) == headerSize:
		hdr.order = binary.LittleEndian
	case binary.BigEndian.Uint32(raw) == headerSize:
		hdr.order = binary.BigEndian
	case binary.LittleEndian.Uint32(raw) == 540 || binary.BigEndian.Uint32(raw) == 540:
		return hdr, fmt.Errorf("%w: NIfTI-2", ErrUnsupported)
	default:
		return hdr, fmt.Errorf("%w: bad sizeof_hdr", ErrMalformed)
	}

	if err := binary.Read(bytes.NewReader(raw[40:56]), hdr.order, &hdr.Dim); err != nil {
		return hdr, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	hdr.Datatype = int16(hdr.order.Uint16(raw[70:]))
	hdr.Bitpix = int16(hdr.order.Uint16(raw[72:]))
	if err := binary.Read(bytes.NewReader(raw[76:108]), hdr.order, &hdr.Pixdim); err != nil {
		return hdr, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	hdr.VoxOffset = math.Float32frombits(hdr.order.Uint32(raw[108:]))
	hdr.SclSlope = math.Float32frombits(hdr.order.Uint32(raw[112:]))
	hdr.SclInter = math.Float32frombits(hdr.order.Uint32(raw[116:]))
	hdr.Magic = string(bytes.TrimRight(raw[344:348], "\x00"))

	switch hdr.Magic {
	case "n+1":
	case "ni1":
		return hdr, fmt.Errorf("%w: separate .hdr/.img pair", ErrUnsupported)
	default:
		return hdr, fmt.Errorf("%w: bad magic %q", ErrMalformed, hdr.Magic)
	}
	return hdr, nil
}

// shape maps (dim1, dim2, dim3) to (rows=dim2, cols=dim1, depth=dim3).
// Higher dimensions must be singleton.
func (h Header) shape() (models.Shape, error) {
	n := int(h.Dim[0])
	if n < 2 || n > 7 {
		return models.Shape{}, fmt.Errorf("%w: %d dimensions", ErrMalformed, n)
	}
	for d := 4; d <= n; d++ {
		if h.Dim[d] > 1 {
			return models.Shape{}, fmt.Errorf("%w: dimension %d has extent %d, only 3-D volumes are read", ErrUnsupported, d, h.Dim[d])
		}
	}

	shape := models.Shape{Rows: int(h.Dim[2]), Cols: int(h.Dim[1]), Depth: 1}
	if n >= 3 {
		shape.Depth = int(h.Dim[3])
	}
	if shape.Rows <= 0 || shape.Cols <= 0 || shape.Depth <= 0 {
		return models.Shape{}, fmt.Errorf("%w: non-positive extent %s", ErrMalformed, shape)
	}
	return shape, nil
}

// bytesPerVoxel returns the storage width of the datatype
func bytesPerVoxel(datatype int16) (int, error) {
	switch datatype {
	case TypeUint8, TypeInt8:
		return 1, nil
	case TypeInt16, TypeUint16:
		return 2, nil
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4, nil
	case TypeFloat64, TypeInt64, TypeUint64:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: datatype %d", ErrUnsupported, datatype)
}

// voxelSpan returns the start and per-voxel width of the voxel data, or
// ErrMalformed when rawLen bytes cannot hold every voxel of shape.
func (h Header) voxelSpan(shape models.Shape, rawLen int) (offset, width int, err error) {
	width, err = bytesPerVoxel(h.Datatype)
	if err != nil {
		return 0, 0, err
	}

	offset = int(h.VoxOffset)
	if offset < minOffset {
		offset = minOffset
	}
	have := rawLen - offset
	if have < 0 {
		have = 0
	}
	if need := shape.Voxels(); need > have/width {
		return 0, 0, fmt.Errorf("%w: need %d voxels of %d bytes, have %d bytes", ErrMalformed, need, width, have)
	}
	return offset, width, nil
}

// readVoxels decodes len(dst) voxels of the given width from data and
// applies scl_slope/scl_inter when the slope is non-zero and finite.
func (h Header) readVoxels(data []byte, width int, dst []float64) {
	o := h.order
	for i := range dst {
		b := data[i*width:]
		switch h.Datatype {
		case TypeUint8:
			dst[i] = float64(b[0])
		case TypeInt8:
			dst[i] = float64(int8(b[0]))
		case TypeInt16:
			dst[i] = float64(int16(o.Uint16(b)))
		case TypeUint16:
			dst[i] = float64(o.Uint16(b))
		case TypeInt32:
			dst[i] = float64(int32(o.Uint32(b)))
		case TypeUint32:
			dst[i] = float64(o.Uint32(b))
		case TypeFloat32:
			dst[i] = float64(math.Float32frombits(o.Uint32(b)))
		case TypeFloat64:
			dst[i] = math.Float64frombits(o.Uint64(b))
		case TypeInt64:
			dst[i] = float64(int64(o.Uint64(b)))
		case TypeUint64:
			dst[i] = float64(o.Uint64(b))
		}
	}

	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	if slope != 0 && !math.IsNaN(slope) && !math.IsInf(slope, 0) {
		for i := range dst {
			dst[i] = dst[i]*slope + inter
		}
	}
}
