package shm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytesPerPixel for the 32-bit formats used here
const BytesPerPixel = 4

const maxSize = math.MaxInt32

// Geometry is the layout of one buffer.
type Geometry struct {
	Width  int
	Height int
	Stride int // bytes per row
	Size   int // Stride * Height
}

// NewGeometry computes stride and size for a tightly packed buffer.
func NewGeometry(width, height int) (Geometry, error) {
	if width < 1 || height < 1 {
		return Geometry{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	stride := width * BytesPerPixel
	if stride > maxSize/height {
		return Geometry{}, fmt.Errorf("%w: %dx%d overflows", ErrInvalidSize, width, height)
	}
	return Geometry{
		Width:  width,
		Height: height,
		Stride: stride,
		Size:   stride * height,
	}, nil
}

// Image is a pixel buffer laid over shared memory.
// Pixels are little-endian 32-bit words, as wl_shm formats are defined.
type Image struct {
	Geometry
	Format Format
	Pix    []byte
}

// NewImage wraps pix, which must hold at least g.Size bytes.
func NewImage(pix []byte, g Geometry, f Format) (*Image, error) {
	if len(pix) < g.Size {
		return nil, fmt.Errorf("image needs %d bytes, have %d", g.Size, len(pix))
	}
	return &Image{Geometry: g, Format: f, Pix: pix[:g.Size]}, nil
}

// Fill writes c to every pixel.
func (img *Image) Fill(c Color) {
	for y := 0; y < img.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < img.Width; x++ {
			binary.LittleEndian.PutUint32(row[x*BytesPerPixel:], uint32(c))
		}
	}
}

// Set sets a single pixel. Out-of-bounds writes are clipped.
func (img *Image) Set(x, y int, c Color) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	binary.LittleEndian.PutUint32(img.Pix[y*img.Stride+x*BytesPerPixel:], uint32(c))
}

// At returns the pixel at (x, y), or 0 outside the image.
func (img *Image) At(x, y int) Color {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0
	}
	return Color(binary.LittleEndian.Uint32(img.Pix[y*img.Stride+x*BytesPerPixel:]))
}

// Pixels returns the number of pixels.
func (img *Image) Pixels() int {
	return img.Width * img.Height
}
