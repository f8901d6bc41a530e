package source

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gen2brain/go-fitz"
)

// DocSource renders one page of a PDF-like document as the scene, so a
// slide can be toured with zoom segments the same way a recording is.
type DocSource struct {
	img *image.RGBA
	dur float64
}

func NewDocSource(path string, page, dpi int, duration float64) (*DocSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("%s has no page %d", path, page)
	}
	if dpi <= 0 {
		dpi = 144
	}
	rendered, err := doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("rendering page %d of %s: %w", page, path, err)
	}

	b := rendered.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), rendered, b.Min, draw.Src)

	if duration <= 0 {
		duration = 10
	}
	return &DocSource{img: img, dur: duration}, nil
}

func (s *DocSource) Frame(t float64) (*image.RGBA, error) {
	return s.img, nil
}

func (s *DocSource) Size() (int, int) {
	return s.img.Rect.Dx(), s.img.Rect.Dy()
}

func (s *DocSource) FPS() float64 {
	return 0
}

func (s *DocSource) Duration() float64 {
	return s.dur
}

func (s *DocSource) Close() error {
	return nil
}
