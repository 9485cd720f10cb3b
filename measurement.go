package slidescene

import "math"

// EMU (English Metric Units) conversion helpers.
// 1 inch = 914400 EMU, 1 point = 12700 EMU, 1 px (96 DPI) = 9525 EMU.

const (
	emuPerInch    = 914400
	emuPerPoint   = 12700
	pixelsPerInch = 96
	pointsPerInch = 72
	emuPerPixel   = emuPerInch / pixelsPerInch
	// maxEMU is the maximum safe EMU value to prevent overflow.
	maxEMU = math.MaxInt64 / 2
	// rotationUnit is the number of OOXML rotation units per degree.
	rotationUnit = 60000
	// percentUnit is the OOXML "ST_Percentage" scale (100000 = 100%).
	percentUnit = 100000
)

// Inch converts inches to EMU. Clamps to safe range.
func Inch(n float64) int64 {
	return clampEMU(n * emuPerInch)
}

// Point converts points to EMU.
func Point(n float64) int64 {
	return clampEMU(n * emuPerPoint)
}

// EMUToPoint converts EMU to points.
func EMUToPoint(emu int64) float64 {
	return float64(emu) / emuPerPoint
}

// ToPixels converts native document units to pixels at 96 DPI.
func ToPixels(emu int64) float64 {
	return float64(emu) / emuPerPixel
}

// FromPixels converts pixels at 96 DPI back to EMU, rounding to the nearest unit.
func FromPixels(px float64) int64 {
	return clampEMU(math.Round(px * emuPerPixel))
}

// PointsToPixels converts a typographic point size to pixels at 96 DPI.
func PointsToPixels(pt float64) float64 {
	return pt * pixelsPerInch / pointsPerInch
}

// PixelsToPoints is the inverse of PointsToPixels.
func PixelsToPoints(px float64) float64 {
	return px * pointsPerInch / pixelsPerInch
}

// NormalizeRotation folds any angle in degrees into [0, 360).
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

// RotationFromOOXML converts a rot attribute (60000ths of a degree) to
// normalized degrees.
func RotationFromOOXML(rot int64) float64 {
	return NormalizeRotation(float64(rot) / rotationUnit)
}

// ScaleToCanvas returns the uniform factor that maps a slide of the given
// native size onto a canvas of the given pixel size. Axes are never scaled
// independently.
func ScaleToCanvas(nativeWidth, nativeHeight int64, canvasWidth, canvasHeight int) float64 {
	w, h := ToPixels(nativeWidth), ToPixels(nativeHeight)
	if w <= 0 || h <= 0 || canvasWidth <= 0 || canvasHeight <= 0 {
		return 1
	}
	return math.Min(float64(canvasWidth)/w, float64(canvasHeight)/h)
}

// percentToFraction converts an ST_Percentage value (100000 = 1.0).
func percentToFraction(v int64) float64 {
	return float64(v) / percentUnit
}

// clampEMU converts a float64 to int64, clamping to prevent overflow.
func clampEMU(v float64) int64 {
	if v > float64(maxEMU) {
		return maxEMU
	}
	if v < -float64(maxEMU) {
		return -maxEMU
	}
	return int64(v)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
