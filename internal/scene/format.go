package scene

import (
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Fixed formats v with the given number of decimals.
func Fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Thousands formats a non-negative integer with comma separators.
func Thousands(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 0, 64)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// basicfont.Face7x13 is 13px tall with 7px advances.
const faceSize = 13.0

// TextWidth estimates the rendered width of s at size px. A size of 0 means
// the face's own 13px.
func TextWidth(s string, size float64) float64 {
	if size <= 0 {
		size = faceSize
	}
	adv := font.MeasureString(basicfont.Face7x13, s)
	return float64(adv) / 64 * size / faceSize
}
