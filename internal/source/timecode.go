package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"
)

// TimecodeSource generates synthetic frames carrying a QR code of their
// own timestamp plus a progress bar. Used by the demo path and for
// eyeballing frame ordering in exported files.
type TimecodeSource struct {
	width  int
	height int
	fps    float64
	dur    float64
	buf    *image.RGBA
	last   int
}

func NewTimecodeSource(width, height int, fps, duration float64) (*TimecodeSource, error) {
	if width <= 0 || height <= 0 || fps <= 0 || duration <= 0 {
		return nil, fmt.Errorf("invalid timecode source %dx%d %gfps %gs", width, height, fps, duration)
	}
	return &TimecodeSource{
		width:  width,
		height: height,
		fps:    fps,
		dur:    duration,
		buf:    image.NewRGBA(image.Rect(0, 0, width, height)),
		last:   -1,
	}, nil
}

func (s *TimecodeSource) Frame(t float64) (*image.RGBA, error) {
	idx := int(t*s.fps + 1e-6)
	if idx < 0 {
		idx = 0
	}
	if max := int(s.dur*s.fps+0.5) - 1; idx > max {
		idx = max
	}
	if idx == s.last {
		return s.buf, nil
	}

	// background shade cycles so consecutive frames differ even far
	// from the code
	shade := uint8(24 + 12*(idx%8))
	px := s.buf.Pix
	for i := 0; i < len(px); i += 4 {
		px[i+0] = shade
		px[i+1] = shade
		px[i+2] = shade + 8
		px[i+3] = 255
	}

	code, err := qrcode.New(fmt.Sprintf("zoomcast %05d %.3f", idx, float64(idx)/s.fps), qrcode.Medium)
	if err != nil {
		return nil, err
	}
	size := s.height / 2
	qr := code.Image(size)
	at := image.Pt((s.width-size)/2, (s.height-size)/2)
	draw.Draw(s.buf, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, qr, qr.Bounds().Min, draw.Src)

	barW := int(float64(s.width) * float64(idx) / (s.dur * s.fps))
	draw.Draw(s.buf, image.Rect(0, s.height-16, barW, s.height-8),
		image.NewUniform(color.RGBA{230, 230, 230, 255}), image.Point{}, draw.Src)

	s.last = idx
	return s.buf, nil
}

func (s *TimecodeSource) Size() (int, int) {
	return s.width, s.height
}

func (s *TimecodeSource) FPS() float64 {
	return s.fps
}

func (s *TimecodeSource) Duration() float64 {
	return s.dur
}

func (s *TimecodeSource) Close() error {
	return nil
}
