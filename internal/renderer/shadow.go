package renderer

import (
	"image"

	"github.com/ivlev/zoomcast/internal/effects"
)

// buildShadow renders the drop shadow for the frame once, at construction.
// The result is a premultiplied black RGBA already positioned in canvas
// coordinates, shifted slightly downward, ready for a plain Over draw.
func buildShadow(inner image.Rectangle, radius int, intensity float64) *image.RGBA {
	if intensity > 1 {
		intensity = 1
	}
	blur := int(6 + 12*intensity)
	offsetY := int(4 + 8*intensity)
	alpha := uint8(60 + 110*intensity)

	margin := blur * 2
	w := inner.Dx() + margin*2
	h := inner.Dy() + margin*2

	shape := image.NewAlpha(image.Rect(0, 0, w, h))
	mask := effects.RoundedMask(inner.Dx(), inner.Dy(), radius)
	for y := 0; y < inner.Dy(); y++ {
		dst := (y+margin)*shape.Stride + margin
		src := y * mask.Stride
		copy(shape.Pix[dst:dst+inner.Dx()], mask.Pix[src:src+inner.Dx()])
	}

	// three box passes approximate a gaussian falloff
	for i := 0; i < 3; i++ {
		boxBlurAlpha(shape, blur/2+1)
	}

	at := image.Pt(inner.Min.X-margin, inner.Min.Y-margin+offsetY)
	out := image.NewRGBA(image.Rect(0, 0, w, h).Add(at))
	for i, a := range shape.Pix {
		out.Pix[i*4+3] = uint8(uint16(a) * uint16(alpha) / 255)
	}
	return out
}

// boxBlurAlpha runs one separable box blur pass of radius r over m in
// place. m must start at the origin. Edges clamp; the shadow shape must
// sit well inside its margin for the clamp to stay invisible.
func boxBlurAlpha(m *image.Alpha, r int) {
	if r <= 0 {
		return
	}
	w := m.Rect.Dx()
	h := m.Rect.Dy()
	window := 2*r + 1
	tmp := make([]uint8, w*h)

	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+w]
		sum := 0
		for x := -r; x <= r; x++ {
			sum += int(row[clampI(x, 0, w-1)])
		}
		for x := 0; x < w; x++ {
			tmp[y*w+x] = uint8(sum / window)
			sum += int(row[clampI(x+r+1, 0, w-1)]) - int(row[clampI(x-r, 0, w-1)])
		}
	}
	for x := 0; x < w; x++ {
		sum := 0
		for y := -r; y <= r; y++ {
			sum += int(tmp[clampI(y, 0, h-1)*w+x])
		}
		for y := 0; y < h; y++ {
			m.Pix[y*m.Stride+x] = uint8(sum / window)
			sum += int(tmp[clampI(y+r+1, 0, h-1)*w+x]) - int(tmp[clampI(y-r, 0, h-1)*w+x])
		}
	}
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
