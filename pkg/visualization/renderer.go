package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"ctoverlay/pkg/mosaic"
)

// DefaultTileSize is the edge length in pixels of a rendered tile
const DefaultTileSize = 256

// Renderer draws a mosaic plan into a single raster: tiles row-major, the
// title of each tile above it, no axes. Grid cells without a tile stay
// background.
type Renderer struct {
	// TileSize is the width and height each slice image is scaled to
	TileSize int

	// Padding is the gap in pixels around every cell
	Padding int

	Background color.Color
	Foreground color.Color

	face font.Face
}

// NewRenderer creates a renderer with white background and black captions
func NewRenderer(tileSize int) *Renderer {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &Renderer{
		TileSize:   tileSize,
		Padding:    8,
		Background: color.White,
		Foreground: color.Black,
		face:       basicfont.Face7x13,
	}
}

// titleLines returns the number of caption lines of the tallest title
func titleLines(plan *mosaic.Plan) int {
	lines := 0
	for _, t := range plan.Tiles {
		if n := strings.Count(t.Title, "\n") + 1; n > lines {
			lines = n
		}
	}
	return lines
}

// Render composes the plan. Each tile is scaled with nearest-neighbour
// sampling so label boundaries stay crisp.
func (r *Renderer) Render(plan *mosaic.Plan) (*image.RGBA, error) {
	if plan.Rows <= 0 || plan.Cols <= 0 {
		return nil, fmt.Errorf("invalid grid %dx%d", plan.Rows, plan.Cols)
	}

	lineHeight := r.face.Metrics().Height.Ceil()
	captionHeight := titleLines(plan) * lineHeight
	cellW := r.TileSize + 2*r.Padding
	cellH := captionHeight + r.TileSize + 2*r.Padding

	canvas := image.NewRGBA(image.Rect(0, 0, plan.Cols*cellW, plan.Rows*cellH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	for _, t := range plan.Tiles {
		if t.Row < 0 || t.Row >= plan.Rows || t.Col < 0 || t.Col >= plan.Cols {
			return nil, fmt.Errorf("tile for slice %d at (%d, %d) outside %dx%d grid",
				t.Index, t.Row, t.Col, plan.Rows, plan.Cols)
		}

		src, err := t.Image.SliceImage(0)
		if err != nil {
			return nil, fmt.Errorf("tile for slice %d: %w", t.Index, err)
		}

		x0 := t.Col*cellW + r.Padding
		y0 := t.Row*cellH + r.Padding
		r.drawTitle(canvas, t.Title, x0, y0, lineHeight)

		dst := image.Rect(x0, y0+captionHeight, x0+r.TileSize, y0+captionHeight+r.TileSize)
		draw.NearestNeighbor.Scale(canvas, dst, src, src.Bounds(), draw.Src, nil)
	}

	return canvas, nil
}

func (r *Renderer) drawTitle(dst *image.RGBA, title string, x, y, lineHeight int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.Foreground),
		Face: r.face,
	}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i, line := range strings.Split(title, "\n") {
		d.Dot = fixed.P(x, y+i*lineHeight+ascent)
		d.DrawString(line)
	}
}

// Save writes img to filename, choosing PNG or JPEG by extension
func Save(img image.Image, filename string) (err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("unsupported image format %q (must be .png, .jpg or .jpeg)", ext)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if ext == ".png" {
		return png.Encode(file, img)
	}
	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}
