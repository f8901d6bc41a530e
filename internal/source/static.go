package source

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
)

// StaticSource serves one still image for the whole timeline. A directory
// path picks its first image alphabetically.
type StaticSource struct {
	img *image.RGBA
	dur float64
}

func NewStaticSource(path string, duration float64) (*StaticSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
				names = append(names, entry.Name())
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no images in %s", path)
		}
		sort.Strings(names)
		path = filepath.Join(path, names[0])
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	b := decoded.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), decoded, b.Min, draw.Src)

	if duration <= 0 {
		duration = 10
	}
	return &StaticSource{img: img, dur: duration}, nil
}

func (s *StaticSource) Frame(t float64) (*image.RGBA, error) {
	return s.img, nil
}

func (s *StaticSource) Size() (int, int) {
	return s.img.Rect.Dx(), s.img.Rect.Dy()
}

// FPS is zero: a still has no native frame rate, the export picks one
func (s *StaticSource) FPS() float64 {
	return 0
}

func (s *StaticSource) Duration() float64 {
	return s.dur
}

func (s *StaticSource) Close() error {
	return nil
}
