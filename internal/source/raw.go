package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawMeta describes a headerless capture dump: geometry, rate and byte
// order. The capture helper writes it next to the .raw file.
type RawMeta struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FPS         float64 `yaml:"fps"`
	PixelFormat string  `yaml:"pixel_format"` // rgba or bgra
}

func LoadRawMeta(path string) (RawMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawMeta{}, err
	}
	var meta RawMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return RawMeta{}, fmt.Errorf("parsing capture meta %s: %w", path, err)
	}
	if meta.Width <= 0 || meta.Height <= 0 || meta.FPS <= 0 {
		return RawMeta{}, fmt.Errorf("capture meta %s: bad geometry %dx%d at %g fps",
			path, meta.Width, meta.Height, meta.FPS)
	}
	switch strings.ToLower(meta.PixelFormat) {
	case "", "rgba":
		meta.PixelFormat = "rgba"
	case "bgra":
		meta.PixelFormat = "bgra"
	default:
		return RawMeta{}, fmt.Errorf("capture meta %s: unsupported pixel format %q", path, meta.PixelFormat)
	}
	return meta, nil
}

// MetaPathFor maps a raw dump path to its side-car meta file:
// capture.raw becomes capture.yaml.
func MetaPathFor(rawPath string) string {
	return strings.TrimSuffix(rawPath, filepath.Ext(rawPath)) + ".yaml"
}

// RawSource reads the capture helper's raw dump: width*height*4 bytes per
// frame, no header, constant frame rate. Frames are random access.
type RawSource struct {
	f      *os.File
	meta   RawMeta
	frames int
	buf    *image.RGBA
	swap   bool // bgra input needs an r/b swizzle
	cur    int  // frame index currently in buf, -1 when none
}

// OpenRaw opens a raw dump using its side-car meta file.
func OpenRaw(path string) (*RawSource, error) {
	meta, err := LoadRawMeta(MetaPathFor(path))
	if err != nil {
		return nil, err
	}
	return NewRawSource(path, meta)
}

func NewRawSource(path string, meta RawMeta) (*RawSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	frameBytes := int64(meta.Width) * int64(meta.Height) * 4
	frames := int(fi.Size() / frameBytes)
	if frames == 0 {
		f.Close()
		return nil, fmt.Errorf("raw capture %s holds no complete %dx%d frames", path, meta.Width, meta.Height)
	}
	// a truncated tail frame from an interrupted capture is simply ignored

	return &RawSource{
		f:      f,
		meta:   meta,
		frames: frames,
		buf:    image.NewRGBA(image.Rect(0, 0, meta.Width, meta.Height)),
		swap:   meta.PixelFormat == "bgra",
		cur:    -1,
	}, nil
}

func (s *RawSource) Frame(t float64) (*image.RGBA, error) {
	idx := int(t*s.meta.FPS + 1e-6)
	if idx < 0 {
		idx = 0
	}
	if idx >= s.frames {
		idx = s.frames - 1
	}
	if idx == s.cur {
		return s.buf, nil
	}

	frameBytes := int64(s.meta.Width) * int64(s.meta.Height) * 4
	if _, err := s.f.ReadAt(s.buf.Pix, int64(idx)*frameBytes); err != nil {
		return nil, fmt.Errorf("reading raw frame %d: %w", idx, err)
	}
	if s.swap {
		px := s.buf.Pix
		for i := 0; i < len(px); i += 4 {
			px[i], px[i+2] = px[i+2], px[i]
		}
	}
	s.cur = idx
	return s.buf, nil
}

func (s *RawSource) Size() (int, int) {
	return s.meta.Width, s.meta.Height
}

func (s *RawSource) FPS() float64 {
	return s.meta.FPS
}

func (s *RawSource) Duration() float64 {
	return float64(s.frames) / s.meta.FPS
}

func (s *RawSource) Close() error {
	return s.f.Close()
}
