package effects

import (
	"image"
	"image/color"
	"strings"
)

// GlyphStyle selects the cursor glyph variant
type GlyphStyle int

const (
	GlyphMacOS GlyphStyle = iota
	GlyphWindows
	GlyphMinimal
	GlyphNeon
	GlyphOutlined
)

// GlyphByName resolves a style from its configuration name. Unknown names
// fall back to the macOS pointer.
func GlyphByName(name string) GlyphStyle {
	switch strings.ToLower(name) {
	case "windows":
		return GlyphWindows
	case "minimal", "dot":
		return GlyphMinimal
	case "neon":
		return GlyphNeon
	case "outlined":
		return GlyphOutlined
	default:
		return GlyphMacOS
	}
}

// glyphDesc parameterizes one style so every variant renders through the
// same code path
type glyphDesc struct {
	fill    color.RGBA
	outline color.RGBA
	dot     bool // round dot instead of an arrow shape
	hollow  bool // outline only, no fill
	glow    bool // soft halo behind the glyph
}

var glyphTable = map[GlyphStyle]glyphDesc{
	GlyphMacOS:    {fill: color.RGBA{20, 20, 20, 255}, outline: color.RGBA{255, 255, 255, 255}},
	GlyphWindows:  {fill: color.RGBA{250, 250, 250, 255}, outline: color.RGBA{15, 15, 15, 255}},
	GlyphMinimal:  {fill: color.RGBA{255, 255, 255, 200}, outline: color.RGBA{20, 20, 20, 120}, dot: true},
	GlyphNeon:     {fill: color.RGBA{80, 250, 230, 235}, outline: color.RGBA{10, 40, 40, 180}, dot: true, glow: true},
	GlyphOutlined: {fill: color.RGBA{255, 255, 255, 255}, outline: color.RGBA{30, 30, 30, 200}, hollow: true},
}

// arrowPath is the pointer silhouette in glyph-local pixels with the
// hotspot at the origin, sized for scale 1
var arrowPath = []point{
	{0, 0}, {0, 16.5}, {4.2, 12.8}, {7.2, 19.6}, {9.8, 18.4}, {6.8, 11.8}, {12.4, 11.8},
}

const dotRadius = 6.0

// DrawCursor draws the cursor glyph with its hotspot at (x, y) in output
// pixels. pressed switches the pointer to the pressed-hand shape around
// clicks; opacity scales the whole glyph and is used for motion trails.
func DrawCursor(dst *image.RGBA, x, y float64, style GlyphStyle, scale float64, pressed bool, opacity float64) {
	if opacity <= 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	desc, ok := glyphTable[style]
	if !ok {
		desc = glyphTable[GlyphMacOS]
	}
	clip := dst.Rect

	fill := scaleAlpha(desc.fill, opacity)
	outline := scaleAlpha(desc.outline, opacity)

	if desc.dot {
		r := dotRadius * scale
		if pressed {
			r *= 1.35
		}
		if desc.glow {
			for i, glowR := range [3]float64{r + 6*scale, r + 3.5*scale, r + 1.5*scale} {
				halo := scaleAlpha(desc.fill, opacity*0.12*float64(i+1))
				fillCircle(dst, x, y, glowR, halo, clip)
			}
		}
		fillCircle(dst, x, y, r, fill, clip)
		strokeCircle(dst, x, y, r, 1.5*scale, outline, clip)
		return
	}

	if pressed {
		drawHand(dst, x, y, scale, fill, outline, clip)
		return
	}

	pts := make([]point, len(arrowPath))
	for i, p := range arrowPath {
		pts[i] = point{x + p.x*scale, y + p.y*scale}
	}

	if desc.hollow {
		strokePolygon(dst, pts, 2.2*scale, outline, clip)
		strokePolygon(dst, pts, 1.2*scale, fill, clip)
		return
	}
	strokePolygon(dst, pts, 2.4*scale, outline, clip)
	fillPolygon(dst, pts, fill, clip)
}

// drawHand composes a pressed pointing-hand from capsules and a palm
// circle. The index fingertip sits at the hotspot.
func drawHand(dst *image.RGBA, x, y, scale float64, fill, outline color.RGBA, clip image.Rectangle) {
	type capsule struct {
		x1, y1, x2, y2, w float64
	}
	parts := []capsule{
		{0, 2.5, 0, 12, 5},     // index finger
		{4.6, 8, 4.6, 13.5, 4}, // middle
		{8.4, 9, 8.4, 14, 4},   // ring
		{11.6, 10.5, 11.6, 15, 3.4},
	}

	// outline pass, wider than the fill
	for _, p := range parts {
		strokeLine(dst, x+p.x1*scale, y+p.y1*scale, x+p.x2*scale, y+p.y2*scale, (p.w+2.2)*scale, outline, clip)
	}
	fillCircle(dst, x+5.5*scale, y+16.5*scale, 8.2*scale, outline, clip)

	for _, p := range parts {
		strokeLine(dst, x+p.x1*scale, y+p.y1*scale, x+p.x2*scale, y+p.y2*scale, p.w*scale, fill, clip)
	}
	fillCircle(dst, x+5.5*scale, y+16.5*scale, 7*scale, fill, clip)
}
