package shm

import (
	"encoding/binary"
	"image"
)

// Draw copies src onto the image with its top-left corner at (x, y),
// replacing what was there. Pixels outside the image are clipped.
//
// wl_shm formats carry premultiplied alpha, so translucent source pixels
// are premultiplied on the way in.
func (img *Image) Draw(src image.Image, x, y int) {
	sb := src.Bounds()
	dst := image.Rect(x, y, x+sb.Dx(), y+sb.Dy()).Intersect(image.Rect(0, 0, img.Width, img.Height))
	if dst.Empty() {
		return
	}
	// Offset from destination to source coordinates
	dx, dy := sb.Min.X-x, sb.Min.Y-y

	// Fast path for *image.NRGBA: read the bytes directly
	if nrgba, ok := src.(*image.NRGBA); ok {
		for py := dst.Min.Y; py < dst.Max.Y; py++ {
			so := nrgba.PixOffset(dst.Min.X+dx, py+dy)
			do := py*img.Stride + dst.Min.X*BytesPerPixel
			for px := dst.Min.X; px < dst.Max.X; px++ {
				s := nrgba.Pix[so : so+4 : so+4]
				c := premultiply(s[0], s[1], s[2], s[3])
				binary.LittleEndian.PutUint32(img.Pix[do:], uint32(c))
				so += 4
				do += BytesPerPixel
			}
		}
		return
	}

	// Generic path: RGBA() is already premultiplied, 16 bits per channel
	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		do := py*img.Stride + dst.Min.X*BytesPerPixel
		for px := dst.Min.X; px < dst.Max.X; px++ {
			r, g, b, a := src.At(px+dx, py+dy).RGBA()
			c := Pack(uint8(a>>8), uint8(r>>8), uint8(g>>8), uint8(b>>8))
			binary.LittleEndian.PutUint32(img.Pix[do:], uint32(c))
			do += BytesPerPixel
		}
	}
}

func premultiply(r, g, b, a uint8) Color {
	switch a {
	case 0xFF:
		return Pack(a, r, g, b)
	case 0:
		return Transparent
	}
	mul := func(v uint8) uint8 { return uint8((uint32(v)*uint32(a) + 127) / 255) }
	return Pack(a, mul(r), mul(g), mul(b))
}
