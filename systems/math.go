package systems

import "math"

// Clamp functions for common value ranges

// clampFloat clamps v between minVal and maxVal.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

// Angle functions. Headings are in degrees, y grows downward.

// normalizeHeading wraps a heading to [0, 360).
func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// shortestTurn returns the signed turn in (-180, 180] taking from toward to.
func shortestTurn(from, to float64) float64 {
	d := math.Mod(to-from+540, 360) - 180
	if d == -180 {
		d = 180
	}
	return d
}

// turnToward turns heading toward target by at most maxTurn degrees,
// rotating the shorter way.
func turnToward(heading, target, maxTurn float64) float64 {
	d := shortestTurn(heading, target)
	if math.Abs(d) <= maxTurn {
		return normalizeHeading(target)
	}
	return normalizeHeading(heading + math.Copysign(maxTurn, d))
}

// bearing returns the heading from (x1,y1) to (x2,y2) in [0, 360).
func bearing(x1, y1, x2, y2 float64) float64 {
	return normalizeHeading(math.Atan2(y2-y1, x2-x1) * 180 / math.Pi)
}

// radians converts degrees to radians.
func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// rotateAbout rotates (x, y) about (ox, oy) by deg degrees.
func rotateAbout(x, y, ox, oy, deg float64) (float64, float64) {
	sin, cos := math.Sincos(radians(deg))
	dx, dy := x-ox, y-oy
	return ox + dx*cos - dy*sin, oy + dx*sin + dy*cos
}
