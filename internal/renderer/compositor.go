package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/zoomcast/internal/camera"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/cursor"
	"github.com/ivlev/zoomcast/internal/effects"
	"github.com/ivlev/zoomcast/internal/track"
)

// OffscreenMargin is the slack, in output pixels, past the inner rectangle
// before MapPoint reports a point as off-screen.
const OffscreenMargin = 16.0

const (
	// clickHoldWindow is the time around a click during which the cursor
	// glyph renders in its pressed shape.
	clickHoldWindow = 0.12

	// blurHistoryWindow bounds how far back the applied-camera history
	// reaches. Ghost samples older than this are gone.
	blurHistoryWindow = 0.25
	maxBlurHistory    = 16

	// blurGain converts camera movement between two instants into ghost
	// opacity. Small scrolls produce no visible trail.
	blurGain      = 30.0
	ghostMinAlpha = 0.04

	// cursorTrailSat is the ghost-to-cursor pixel distance at which the
	// cursor trail reaches full strength.
	cursorTrailSat = 24.0
)

var (
	screenBlurOffsets = [4]float64{0.016, 0.033, 0.050, 0.066}
	screenBlurWeights = [4]float64{0.50, 0.38, 0.26, 0.16}

	cursorGhostOffsets = [2]float64{0.033, 0.066}
	cursorGhostAlphas  = [2]float64{0.35, 0.18}
)

var borderColor = color.RGBA{R: 255, G: 255, B: 255, A: 36}

// camSample is one applied camera state remembered for the motion trail.
type camSample struct {
	t   float64
	cam camera.State
}

// Compositor turns raw capture frames into styled output frames: padded
// background, drop shadow, rounded screen area, camera crop, click ripples
// and the synthetic cursor. One Compositor serves one render session; it
// reuses its buffers between frames and is not safe for concurrent use.
type Compositor struct {
	// Scaler performs the camera crop resampling. Construction picks
	// CatmullRom; preview paths may swap in ApproxBiLinear for speed.
	Scaler xdraw.Scaler

	// Smoother carries the cursor-follow pan state between frames.
	Smoother *camera.Smoother

	width  int
	height int
	style  config.StyleConfig
	rec    *track.Recording

	profile camera.PanProfile
	speed   cursor.SpeedProfile
	glyph   effects.GlyphStyle
	radius  int

	inner  image.Rectangle
	mask   *image.Alpha
	shadow *image.RGBA // positioned in canvas coordinates, nil when disabled

	bgLayer *image.RGBA // background drawn once at construction
	canvas  *image.RGBA
	frame   *image.RGBA // inner-sized screen layer before the rounded composite
	scratch *image.RGBA // ghost crop buffer, nil when screen blur is off

	history []camSample
}

// NewCompositor builds a compositor for a width by height output canvas.
// rec may be nil when no tracker data exists; the cursor and ripples are
// then simply absent.
func NewCompositor(width, height int, style config.StyleConfig, rec *track.Recording) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}
	if rec == nil {
		rec = &track.Recording{}
	}

	pad := style.Padding
	if pad < 0 {
		pad = 0
	}
	if 2*pad >= width || 2*pad >= height {
		return nil, fmt.Errorf("padding %d leaves no screen area on a %dx%d canvas", pad, width, height)
	}
	inner := image.Rect(pad, pad, width-pad, height-pad)

	radius := style.CornerRadius
	if radius < 0 {
		radius = 0
	}
	if max := inner.Dx() / 2; radius > max {
		radius = max
	}
	if max := inner.Dy() / 2; radius > max {
		radius = max
	}

	bg, err := effects.BackgroundFromStyle(style)
	if err != nil {
		return nil, err
	}

	profile := camera.PanProfileByName(style.PanSpeed)
	c := &Compositor{
		Scaler: xdraw.CatmullRom,
		Smoother: camera.NewSmoother(camera.Follow{
			Enabled: style.FollowCursor,
			Factor:  style.FollowZoom,
		}, profile),
		width:   width,
		height:  height,
		style:   style,
		rec:     rec,
		profile: profile,
		speed:   cursor.ProfileByName(style.CursorSpeed),
		glyph:   effects.GlyphByName(style.CursorStyle),
		radius:  radius,
		inner:   inner,
		mask:    effects.RoundedMask(inner.Dx(), inner.Dy(), radius),
		bgLayer: image.NewRGBA(image.Rect(0, 0, width, height)),
		canvas:  image.NewRGBA(image.Rect(0, 0, width, height)),
		frame:   image.NewRGBA(image.Rect(0, 0, inner.Dx(), inner.Dy())),
	}
	bg.Draw(c.bgLayer)
	if style.MotionBlurScreen {
		c.scratch = image.NewRGBA(image.Rect(0, 0, inner.Dx(), inner.Dy()))
	}
	if style.Shadow && style.ShadowIntensity > 0 {
		c.shadow = buildShadow(inner, radius, style.ShadowIntensity)
	}
	return c, nil
}

// Inner returns the output-space rectangle the screen content occupies.
func (c *Compositor) Inner() image.Rectangle {
	return c.inner
}

// Reset drops all inter-frame state: follow smoothing and the motion-trail
// history. Call after any seek the caller knows is discontinuous.
func (c *Compositor) Reset() {
	c.Smoother.Reset()
	c.history = c.history[:0]
}

// Render composites the output frame for source frame src at presentation
// time t. Layers go bottom to top: background, shadow, screen content with
// trail and ripples clipped to the rounded frame, then cursor and border on
// top, unclipped. The returned state is the camera actually applied after
// follow smoothing. The returned image is reused by the next Render call.
func (c *Compositor) Render(src image.Image, t float64, segments []camera.Segment) (camera.State, *image.RGBA) {
	copy(c.canvas.Pix, c.bgLayer.Pix)

	resolved := camera.Resolve(t, segments, c.profile)
	active := camera.Active(t, segments, c.profile)
	curX, curY, curOK := cursor.Smooth(c.rec.Samples, t, c.speed)
	cam := c.Smoother.Apply(t, resolved, active, curX, curY, curOK)
	c.remember(t, cam)

	if c.shadow != nil {
		xdraw.Draw(c.canvas, c.shadow.Bounds(), c.shadow, c.shadow.Bounds().Min, xdraw.Over)
	}

	c.drawFrame(src, cam, t)
	xdraw.DrawMask(c.canvas, c.inner, c.frame, c.frame.Bounds().Min, c.mask, c.mask.Bounds().Min, xdraw.Over)

	c.drawCursor(cam, t)
	effects.StrokeRoundedRect(c.canvas, c.inner, float64(c.radius), 1, borderColor)

	return cam, c.canvas
}

// MapPoint maps a normalized source-space point to output pixels under cam.
// ok is false when the point lands further than OffscreenMargin outside the
// inner rectangle; callers skip cursor and ripple drawing for those.
func (c *Compositor) MapPoint(nx, ny float64, cam camera.State) (x, y float64, ok bool) {
	iw := float64(c.inner.Dx())
	ih := float64(c.inner.Dy())
	if cam.Factor > camera.DirectScaleThreshold {
		cw := 1.0 / cam.Factor
		ox := clampF(cam.CX-cw/2, 0, 1-cw)
		oy := clampF(cam.CY-cw/2, 0, 1-cw)
		x = float64(c.inner.Min.X) + (nx-ox)/cw*iw
		y = float64(c.inner.Min.Y) + (ny-oy)/cw*ih
	} else {
		x = float64(c.inner.Min.X) + nx*iw
		y = float64(c.inner.Min.Y) + ny*ih
	}
	ok = x >= float64(c.inner.Min.X)-OffscreenMargin &&
		x <= float64(c.inner.Max.X)+OffscreenMargin &&
		y >= float64(c.inner.Min.Y)-OffscreenMargin &&
		y <= float64(c.inner.Max.Y)+OffscreenMargin
	return x, y, ok
}

// drawFrame fills c.frame with the camera crop of src, the motion trail
// and any live click ripples.
func (c *Compositor) drawFrame(src image.Image, cam camera.State, t float64) {
	c.scaleCrop(c.frame, src, cam)

	if c.scratch != nil {
		for i, off := range screenBlurOffsets {
			past, ok := c.pastCam(t - off)
			if !ok {
				continue
			}
			delta := math.Abs(past.CX-cam.CX) + math.Abs(past.CY-cam.CY) + 0.5*math.Abs(past.Factor-cam.Factor)
			a := screenBlurWeights[i] * math.Min(1, delta*blurGain)
			if a < ghostMinAlpha {
				continue
			}
			xdraw.ApproxBiLinear.Scale(c.scratch, c.scratch.Bounds(), src, cropRect(src.Bounds(), past), xdraw.Src, nil)
			alpha := image.NewUniform(color.Alpha{A: uint8(a*255 + 0.5)})
			xdraw.DrawMask(c.frame, c.frame.Bounds(), c.scratch, c.scratch.Bounds().Min, alpha, image.Point{}, xdraw.Over)
		}
	}

	if c.style.ClickEffects {
		c.drawRipples(cam, t)
	}
}

// drawRipples paints expanding rings for every click younger than the
// ripple window, mapped through the active camera.
func (c *Compositor) drawRipples(cam camera.State, t float64) {
	clicks := c.rec.Clicks
	lo := sort.Search(len(clicks), func(i int) bool {
		return clicks[i].T > t-effects.RippleWindow
	})
	for _, cl := range clicks[lo:] {
		if cl.T > t {
			break
		}
		x, y, ok := c.MapPoint(cl.X, cl.Y, cam)
		if !ok {
			continue
		}
		effects.DrawRipple(c.frame,
			x-float64(c.inner.Min.X),
			y-float64(c.inner.Min.Y),
			t-cl.T, c.frame.Bounds())
	}
}

// drawCursor paints the synthetic cursor glyph in output space, on top of
// the composited frame so it is never cut by the rounded corners.
func (c *Compositor) drawCursor(cam camera.State, t float64) {
	px, py, ok := cursor.Smooth(c.rec.Samples, t, c.speed)
	if !ok {
		return
	}
	x, y, on := c.MapPoint(px, py, cam)
	if !on {
		return
	}

	scale := c.style.CursorScale
	if scale <= 0 {
		scale = 1
	}
	// the glyph grows with the zoom so it keeps covering the hardware
	// cursor baked into the capture
	scale *= cam.Factor
	pressed := cursor.NearClick(c.rec.Clicks, t, clickHoldWindow)

	if c.style.MotionBlurCursor {
		for i, off := range cursorGhostOffsets {
			gx, gy, gok := cursor.Smooth(c.rec.Samples, t-off, c.speed)
			if !gok {
				continue
			}
			sx, sy, sok := c.MapPoint(gx, gy, cam)
			if !sok {
				continue
			}
			a := cursorGhostAlphas[i] * math.Min(1, math.Hypot(sx-x, sy-y)/cursorTrailSat)
			if a < ghostMinAlpha {
				continue
			}
			effects.DrawCursor(c.canvas, sx, sy, c.glyph, scale, pressed, a)
		}
	}
	effects.DrawCursor(c.canvas, x, y, c.glyph, scale, pressed, 1)
}

// scaleCrop resamples the camera's source window to fill dst.
func (c *Compositor) scaleCrop(dst *image.RGBA, src image.Image, cam camera.State) {
	c.Scaler.Scale(dst, dst.Bounds(), src, cropRect(src.Bounds(), cam), xdraw.Src, nil)
}

// cropRect is the pixel window of src the camera shows. Width and height
// shrink by the same factor, so the source aspect is preserved.
func cropRect(b image.Rectangle, cam camera.State) image.Rectangle {
	if cam.Factor <= camera.DirectScaleThreshold {
		return b
	}
	w := float64(b.Dx()) / cam.Factor
	h := float64(b.Dy()) / cam.Factor
	x := float64(b.Min.X) + clampF(cam.CX*float64(b.Dx())-w/2, 0, float64(b.Dx())-w)
	y := float64(b.Min.Y) + clampF(cam.CY*float64(b.Dy())-h/2, 0, float64(b.Dy())-h)
	return image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	)
}

// remember appends the applied camera to the trail history, dropping it
// entirely on any discontinuous jump so a seek never smears.
func (c *Compositor) remember(t float64, cam camera.State) {
	if n := len(c.history); n > 0 {
		last := c.history[n-1]
		if t < last.t || t-last.t > camera.ScrubThreshold {
			c.history = c.history[:0]
		}
	}
	c.history = append(c.history, camSample{t: t, cam: cam})
	for len(c.history) > maxBlurHistory || (len(c.history) > 0 && t-c.history[0].t > blurHistoryWindow) {
		c.history = c.history[1:]
	}
}

// pastCam reconstructs the applied camera at a recent past instant from the
// history. ok is false when the history does not reach back that far, which
// is exactly the case right after a seek.
func (c *Compositor) pastCam(t float64) (camera.State, bool) {
	n := len(c.history)
	if n == 0 || t < c.history[0].t {
		return camera.State{}, false
	}
	for i := n - 1; i >= 0; i-- {
		s := c.history[i]
		if s.t > t {
			continue
		}
		if i == n-1 {
			return s.cam, true
		}
		next := c.history[i+1]
		span := next.t - s.t
		if span <= 0 {
			return next.cam, true
		}
		p := (t - s.t) / span
		return camera.State{
			Factor: lerp(s.cam.Factor, next.cam.Factor, p),
			CX:     lerp(s.cam.CX, next.cam.CX, p),
			CY:     lerp(s.cam.CY, next.cam.CY, p),
		}, true
	}
	return camera.State{}, false
}

func lerp(a, b, p float64) float64 {
	return a + (b-a)*p
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
