package nifti

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"ctoverlay/internal/models"
)

// Encode writes v as a little-endian float32 NIfTI-1 stream, the inverse
// of Decode: row r, column c of slice z is stored as voxel (c, r, z).
func Encode(w io.Writer, v *models.Volume) error {
	if err := v.Validate(); err != nil {
		return err
	}

	buf := make([]byte, minOffset+len(v.Data)*4)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], headerSize)

	dims := [8]int16{3, int16(v.Shape.Cols), int16(v.Shape.Rows), int16(v.Shape.Depth), 1, 1, 1, 1}
	for i, d := range dims {
		le.PutUint16(buf[40+2*i:], uint16(d))
	}
	le.PutUint16(buf[70:], TypeFloat32)
	le.PutUint16(buf[72:], 32)
	for i := 0; i < 4; i++ {
		le.PutUint32(buf[76+4*i:], math.Float32bits(1))
	}
	le.PutUint32(buf[108:], math.Float32bits(minOffset))
	le.PutUint32(buf[112:], math.Float32bits(1))
	copy(buf[344:], "n+1\x00")

	for i, x := range v.Data {
		le.PutUint32(buf[minOffset+4*i:], math.Float32bits(float32(x)))
	}

	_, err := w.Write(buf)
	return err
}

// WriteFile encodes v to path, gzip compressing when path ends in .gz
func WriteFile(path string, v *models.Volume) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return Encode(f, v)
	}

	zw := gzip.NewWriter(f)
	if err := Encode(zw, v); err != nil {
		return err
	}
	return zw.Close()
}
