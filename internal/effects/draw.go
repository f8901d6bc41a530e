package effects

import (
	"image"
	"image/color"
	"math"
)

// blendPixel composites c over dst at (x, y) with source-over alpha
func blendPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if c.A == 0 || !(image.Point{x, y}).In(dst.Rect) {
		return
	}
	if c.A == 255 {
		dst.SetRGBA(x, y, c)
		return
	}

	i := dst.PixOffset(x, y)
	sa := uint32(c.A)
	da := 255 - sa

	dst.Pix[i+0] = uint8((uint32(c.R)*sa + uint32(dst.Pix[i+0])*da) / 255)
	dst.Pix[i+1] = uint8((uint32(c.G)*sa + uint32(dst.Pix[i+1])*da) / 255)
	dst.Pix[i+2] = uint8((uint32(c.B)*sa + uint32(dst.Pix[i+2])*da) / 255)
	a := sa + uint32(dst.Pix[i+3])*da/255
	if a > 255 {
		a = 255
	}
	dst.Pix[i+3] = uint8(a)
}

// scaleAlpha multiplies a color's alpha by k in [0,1]
func scaleAlpha(c color.RGBA, k float64) color.RGBA {
	if k >= 1 {
		return c
	}
	if k < 0 {
		k = 0
	}
	c.A = uint8(float64(c.A) * k)
	return c
}

// fillCircle draws an anti-aliased filled circle clipped to clip
func fillCircle(dst *image.RGBA, cx, cy, r float64, c color.RGBA, clip image.Rectangle) {
	if r <= 0 || c.A == 0 {
		return
	}
	bounds := circleBounds(cx, cy, r+1).Intersect(clip).Intersect(dst.Rect)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			cov := clampCov(r - d + 0.5)
			if cov > 0 {
				blendPixel(dst, x, y, scaleAlpha(c, cov))
			}
		}
	}
}

// strokeCircle draws an anti-aliased ring of the given stroke width
func strokeCircle(dst *image.RGBA, cx, cy, r, width float64, c color.RGBA, clip image.Rectangle) {
	if r <= 0 || width <= 0 || c.A == 0 {
		return
	}
	half := width / 2
	bounds := circleBounds(cx, cy, r+half+1).Intersect(clip).Intersect(dst.Rect)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			cov := clampCov(half - math.Abs(d-r) + 0.5)
			if cov > 0 {
				blendPixel(dst, x, y, scaleAlpha(c, cov))
			}
		}
	}
}

// strokeLine draws a thick line with rounded caps (a capsule)
func strokeLine(dst *image.RGBA, x1, y1, x2, y2, width float64, c color.RGBA, clip image.Rectangle) {
	if width <= 0 || c.A == 0 {
		return
	}
	half := width / 2
	minX := int(math.Floor(math.Min(x1, x2) - half - 1))
	minY := int(math.Floor(math.Min(y1, y2) - half - 1))
	maxX := int(math.Ceil(math.Max(x1, x2) + half + 1))
	maxY := int(math.Ceil(math.Max(y1, y2) + half + 1))
	bounds := image.Rect(minX, minY, maxX, maxY).Intersect(clip).Intersect(dst.Rect)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := segmentDistance(float64(x)+0.5, float64(y)+0.5, x1, y1, x2, y2)
			cov := clampCov(half - d + 0.5)
			if cov > 0 {
				blendPixel(dst, x, y, scaleAlpha(c, cov))
			}
		}
	}
}

// fillPolygon rasterizes a polygon with 2x2 supersampled coverage. Meant
// for small shapes like cursor glyphs, not large areas.
func fillPolygon(dst *image.RGBA, pts []point, c color.RGBA, clip image.Rectangle) {
	if len(pts) < 3 || c.A == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.x)
		minY = math.Min(minY, p.y)
		maxX = math.Max(maxX, p.x)
		maxY = math.Max(maxY, p.y)
	}
	bounds := image.Rect(int(minX)-1, int(minY)-1, int(maxX)+2, int(maxY)+2).Intersect(clip).Intersect(dst.Rect)

	offsets := [4][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hits := 0
			for _, off := range offsets {
				if pointInPolygon(float64(x)+off[0], float64(y)+off[1], pts) {
					hits++
				}
			}
			if hits > 0 {
				blendPixel(dst, x, y, scaleAlpha(c, float64(hits)/4))
			}
		}
	}
}

// strokePolygon outlines a polygon edge by edge
func strokePolygon(dst *image.RGBA, pts []point, width float64, c color.RGBA, clip image.Rectangle) {
	for i := range pts {
		j := (i + 1) % len(pts)
		strokeLine(dst, pts[i].x, pts[i].y, pts[j].x, pts[j].y, width, c, clip)
	}
}

type point struct {
	x, y float64
}

// pointInPolygon tests with the even-odd crossing rule
func pointInPolygon(x, y float64, pts []point) bool {
	inside := false
	j := len(pts) - 1
	for i := 0; i < len(pts); i++ {
		if (pts[i].y > y) != (pts[j].y > y) &&
			x < (pts[j].x-pts[i].x)*(y-pts[i].y)/(pts[j].y-pts[i].y)+pts[i].x {
			inside = !inside
		}
		j = i
	}
	return inside
}

// segmentDistance returns the distance from (px, py) to segment (x1,y1)-(x2,y2)
func segmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

func circleBounds(cx, cy, r float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1,
	)
}

func clampCov(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// roundedRectDist is the signed distance from (px, py) to the edge of a
// rounded rectangle, negative inside
func roundedRectDist(px, py float64, rect image.Rectangle, radius float64) float64 {
	hw := float64(rect.Dx()) / 2
	hh := float64(rect.Dy()) / 2
	qx := math.Abs(px-float64(rect.Min.X)-hw) - hw + radius
	qy := math.Abs(py-float64(rect.Min.Y)-hh) - hh + radius
	outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
	inside := math.Min(math.Max(qx, qy), 0)
	return outside + inside - radius
}

// RoundedMask builds a w by h alpha mask with corners rounded to radius.
// Straight edges stay hard; only the corner arcs are anti-aliased.
func RoundedMask(w, h, radius int) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range m.Pix {
		m.Pix[i] = 255
	}
	if radius <= 0 {
		return m
	}
	if max := w / 2; radius > max {
		radius = max
	}
	if max := h / 2; radius > max {
		radius = max
	}

	r := float64(radius)
	corners := [4]image.Rectangle{
		image.Rect(0, 0, radius, radius),
		image.Rect(w-radius, 0, w, radius),
		image.Rect(0, h-radius, radius, h),
		image.Rect(w-radius, h-radius, w, h),
	}
	for _, c := range corners {
		for y := c.Min.Y; y < c.Max.Y; y++ {
			for x := c.Min.X; x < c.Max.X; x++ {
				d := roundedRectDist(float64(x)+0.5, float64(y)+0.5, m.Rect, r)
				m.Pix[y*m.Stride+x] = uint8(clampCov(0.5-d) * 255)
			}
		}
	}
	return m
}

// StrokeRoundedRect outlines a rounded rectangle with an anti-aliased
// stroke centered on its edge
func StrokeRoundedRect(dst *image.RGBA, rect image.Rectangle, radius, width float64, c color.RGBA) {
	if width <= 0 || c.A == 0 {
		return
	}
	half := width / 2
	pad := int(math.Ceil(half)) + 1
	outer := rect.Inset(-pad).Intersect(dst.Rect)
	// pixels deeper inside than the corner arcs can never touch the stroke
	skip := rect.Inset(pad + int(math.Ceil(radius)))

	for y := outer.Min.Y; y < outer.Max.Y; y++ {
		for x := outer.Min.X; x < outer.Max.X; x++ {
			if (image.Point{x, y}).In(skip) {
				x = skip.Max.X - 1
				continue
			}
			d := roundedRectDist(float64(x)+0.5, float64(y)+0.5, rect, radius)
			cov := clampCov(half - math.Abs(d) + 0.5)
			if cov > 0 {
				blendPixel(dst, x, y, scaleAlpha(c, cov))
			}
		}
	}
}

// ParseHexColor decodes #rgb or #rrggbb. Bad input yields fallback.
func ParseHexColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) == 0 || s[0] != '#' {
		return fallback
	}
	hex := s[1:]
	var r, g, b uint8
	switch len(hex) {
	case 3:
		rv, ok1 := hexNibble(hex[0])
		gv, ok2 := hexNibble(hex[1])
		bv, ok3 := hexNibble(hex[2])
		if !ok1 || !ok2 || !ok3 {
			return fallback
		}
		r, g, b = rv*17, gv*17, bv*17
	case 6:
		var vals [3]uint8
		for i := 0; i < 3; i++ {
			hi, ok1 := hexNibble(hex[i*2])
			lo, ok2 := hexNibble(hex[i*2+1])
			if !ok1 || !ok2 {
				return fallback
			}
			vals[i] = hi*16 + lo
		}
		r, g, b = vals[0], vals[1], vals[2]
	default:
		return fallback
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
