package effects

import (
	"image"
	"image/color"
)

// RippleWindow is how long one click ripple stays visible, in seconds
const RippleWindow = 0.7

const (
	rippleStartRadius = 12.0
	rippleEndRadius   = 46.0
	flashPortion      = 0.15
)

// DrawRipple draws one click ripple centered at (cx, cy) output pixels.
// age is the time since the click; ages outside [0, RippleWindow) draw
// nothing. The effect is an expanding fading outer ring, a secondary
// inner ring during the first half of the window, and a brief center
// flash right after the press.
func DrawRipple(dst *image.RGBA, cx, cy, age float64, clip image.Rectangle) {
	if age < 0 || age >= RippleWindow {
		return
	}
	p := age / RippleWindow
	grow := easeOutQuart(p)
	fade := 1 - p

	outer := rippleStartRadius + (rippleEndRadius-rippleStartRadius)*grow
	ring := color.RGBA{255, 255, 255, uint8(200 * fade)}
	strokeCircle(dst, cx, cy, outer, 2.5, ring, clip)

	if p < 0.5 {
		inner := outer * 0.55
		innerFade := 1 - p*2
		strokeCircle(dst, cx, cy, inner, 2, color.RGBA{255, 255, 255, uint8(150 * innerFade)}, clip)
	}

	if p < flashPortion {
		flashFade := 1 - p/flashPortion
		fillCircle(dst, cx, cy, 7, color.RGBA{255, 255, 255, uint8(220 * flashFade)}, clip)
	}
}

// easeOutQuart decelerates hard toward the end of the range
func easeOutQuart(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u*u
}
