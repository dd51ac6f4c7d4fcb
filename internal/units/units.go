// Package units converts template measurements (centimetres, points, named
// font sizes) into the fixed-point units used by the docx format and into CSS
// pixels for the HTML preview.
package units

import "math"

const (
	twipsPerCm = 566.93
	emuPerCm   = 360000
	pxPerInch  = 96
	cmPerInch  = 2.54
	twipsPerIn = 1440
)

// CmToTwips converts centimetres to twips (1/20 pt).
func CmToTwips(cm float64) int64 {
	return int64(math.Round(cm * twipsPerCm))
}

// CmToEMU converts centimetres to English Metric Units.
func CmToEMU(cm float64) int64 {
	return int64(math.Round(cm * emuPerCm))
}

// CmToPx converts centimetres to CSS pixels at 96 dpi.
func CmToPx(cm float64) int {
	return int(math.Round(cm * pxPerInch / cmPerInch))
}

// TwipsToPx converts twips to CSS pixels at 96 dpi.
func TwipsToPx(twips int64) int {
	return int(math.Round(float64(twips) * pxPerInch / twipsPerIn))
}

// HalfPoints converts a point size to the half-point value docx stores in w:sz.
func HalfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// BorderEighths converts a border width in points to eighths of a point.
func BorderEighths(pt float64) int {
	return int(math.Round(pt * 8))
}

// LineTwips converts a line-spacing multiple (1.5 = one and a half lines) to
// the 240ths-of-a-line value used with lineRule="auto".
func LineTwips(multiple float64) int {
	return int(math.Round(multiple * 240))
}

// PtToTwips converts points to twips.
func PtToTwips(pt float64) int {
	return int(math.Round(pt * 20))
}

// PtToPx converts points to CSS pixels.
func PtToPx(pt float64) float64 {
	return pt * pxPerInch / 72
}

// HalfPointsToPx converts a docx half-point size to CSS pixels.
func HalfPointsToPx(hp int) float64 {
	return PtToPx(float64(hp) / 2)
}

// TwipsToCm converts twips back to centimetres, rounded to 0.01 cm.
func TwipsToCm(twips int64) float64 {
	return math.Round(float64(twips)/twipsPerCm*100) / 100
}
