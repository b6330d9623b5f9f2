package shm

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is a wl_shm pixel format code.
type Format uint32

// Formats every compositor must support
const (
	FormatARGB8888 Format = 0
	FormatXRGB8888 Format = 1
)

func (f Format) String() string {
	switch f {
	case FormatARGB8888:
		return "argb8888"
	case FormatXRGB8888:
		return "xrgb8888"
	default:
		return fmt.Sprintf("format(0x%08x)", uint32(f))
	}
}

// Color is a pixel in ARGB8888 packing: 0xAARRGGBB.
type Color uint32

// Predefined colors
const (
	Black       Color = 0xFF000000
	White       Color = 0xFFFFFFFF
	Transparent Color = 0x00000000
)

// Pack packs channels as (a<<24)|(r<<16)|(g<<8)|b.
func Pack(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// ParseColor parses "#AARRGGBB" or "#RRGGBB" (opaque). The leading '#'
// is optional.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return 0, fmt.Errorf("invalid color %q: want #RRGGBB or #AARRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}
