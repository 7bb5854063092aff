package segclock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is a packed 0xWWRRGGBB pixel value.
type Color uint32

// RGBW packs four channels into a Color.
func RGBW(r, g, b, w uint8) Color {
	return Color(uint32(w)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }
func (c Color) W() uint8 { return uint8(c >> 24) }

// Add sums two colors channel by channel, saturating at 255.
func Add(a, b Color) Color {
	return RGBW(
		qadd8(a.R(), b.R()),
		qadd8(a.G(), b.G()),
		qadd8(a.B(), b.B()),
		qadd8(a.W(), b.W()),
	)
}

// Scale multiplies every channel by (fraction+1)/256, so 255 leaves c untouched.
func Scale(c Color, fraction uint8) Color {
	return RGBW(
		scale8(c.R(), fraction),
		scale8(c.G(), fraction),
		scale8(c.B(), fraction),
		scale8(c.W(), fraction),
	)
}

// Gamma maps every channel through the perceptual brightness curve.
func Gamma(c Color) Color {
	return RGBW(gammaTable[c.R()], gammaTable[c.G()], gammaTable[c.B()], gammaTable[c.W()])
}

func qadd8(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

func scale8(v, fraction uint8) uint8 {
	return uint8((uint16(v) * (1 + uint16(fraction))) >> 8)
}

const gammaExponent = 2.8

var (
	gammaTable [256]uint8
	sineTable  [256]uint8
)

func init() {
	for i := range gammaTable {
		gammaTable[i] = uint8(math.Pow(float64(i)/255.0, gammaExponent)*255.0 + 0.5)
	}
	for i := range sineTable {
		sineTable[i] = uint8(math.Round(128 + 127*math.Sin(2*math.Pi*float64(i)/256)))
	}
}

// sin8 is one full sine period over 256 steps, centered on 128.
func sin8(theta uint8) uint8 { return sineTable[theta] }

// cos8 is sin8 shifted by a quarter period.
func cos8(theta uint8) uint8 { return sineTable[theta+64] }

// FormatColor renders the RGB part of c as six upper-case hex digits.
func FormatColor(c Color) string {
	return fmt.Sprintf("%06X", uint32(c)&0xFFFFFF)
}

// ParseColor reads a RRGGBB hex string. A leading '#' is accepted.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if hex == "" {
		return 0, fmt.Errorf("empty color string")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if v > 0xFFFFFF {
		return 0, fmt.Errorf("color %q out of range", s)
	}
	return Color(v), nil
}
