package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRawFixture(t *testing.T, dir string, frames int, frame func(i int) []byte) string {
	t.Helper()
	path := filepath.Join(dir, "capture.raw")
	var buf bytes.Buffer
	for i := 0; i < frames; i++ {
		buf.Write(frame(i))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func flatFrame(w, h int, b0, b1, b2 byte) []byte {
	px := make([]byte, w*h*4)
	for i := 0; i < len(px); i += 4 {
		px[i+0] = b0
		px[i+1] = b1
		px[i+2] = b2
		px[i+3] = 255
	}
	return px
}

func TestRawSourceFrameLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeRawFixture(t, dir, 3, func(i int) []byte {
		return flatFrame(4, 2, byte(i*10+5), 0, 0)
	})
	meta := RawMeta{Width: 4, Height: 2, FPS: 10, PixelFormat: "rgba"}

	s, err := NewRawSource(path, meta)
	if err != nil {
		t.Fatalf("NewRawSource: %v", err)
	}
	defer s.Close()

	if w, h := s.Size(); w != 4 || h != 2 {
		t.Errorf("Size = %dx%d, want 4x2", w, h)
	}
	if got := s.Duration(); got != 0.3 {
		t.Errorf("Duration = %v, want 0.3", got)
	}

	tests := []struct {
		t    float64
		want byte
	}{
		{0.0, 5},
		{0.05, 5},
		{0.1, 15},
		{0.15, 15},
		{0.2, 25},
		{9.0, 25}, // clamps to the last frame
		{-1.0, 5}, // clamps to the first frame
	}
	for _, tt := range tests {
		img, err := s.Frame(tt.t)
		if err != nil {
			t.Fatalf("Frame(%v): %v", tt.t, err)
		}
		if got := img.Pix[0]; got != tt.want {
			t.Errorf("Frame(%v) first byte = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestRawSourceBGRASwizzle(t *testing.T) {
	dir := t.TempDir()
	// file bytes are B,G,R,A
	path := writeRawFixture(t, dir, 1, func(i int) []byte {
		return flatFrame(2, 2, 30, 20, 10)
	})
	meta := RawMeta{Width: 2, Height: 2, FPS: 30, PixelFormat: "bgra"}

	s, err := NewRawSource(path, meta)
	if err != nil {
		t.Fatalf("NewRawSource: %v", err)
	}
	defer s.Close()

	img, err := s.Frame(0)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("Swizzled pixel = %v, want {10 20 30 255}", got)
	}
}

func TestRawSourceIgnoresTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.raw")
	full := flatFrame(2, 2, 1, 2, 3)
	data := append(append([]byte{}, full...), full[:7]...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := NewRawSource(path, RawMeta{Width: 2, Height: 2, FPS: 30, PixelFormat: "rgba"})
	if err != nil {
		t.Fatalf("NewRawSource: %v", err)
	}
	defer s.Close()

	if got := s.Duration(); got != 1.0/30.0 {
		t.Errorf("Duration = %v, want one frame", got)
	}
}

func TestLoadRawMeta(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "capture.yaml")
	os.WriteFile(good, []byte("width: 640\nheight: 480\nfps: 30\npixel_format: bgra\n"), 0644)

	meta, err := LoadRawMeta(good)
	if err != nil {
		t.Fatalf("LoadRawMeta: %v", err)
	}
	if meta.Width != 640 || meta.Height != 480 || meta.FPS != 30 || meta.PixelFormat != "bgra" {
		t.Errorf("meta = %+v", meta)
	}

	tests := []struct {
		name string
		body string
	}{
		{"zero width", "width: 0\nheight: 480\nfps: 30\n"},
		{"missing fps", "width: 640\nheight: 480\n"},
		{"unknown format", "width: 640\nheight: 480\nfps: 30\npixel_format: yuv420p\n"},
		{"not yaml", "{{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, "bad.yaml")
			os.WriteFile(p, []byte(tt.body), 0644)
			if _, err := LoadRawMeta(p); err == nil {
				t.Error("bad meta accepted")
			}
		})
	}
}

func TestMetaPathFor(t *testing.T) {
	if got := MetaPathFor("/captures/session.raw"); got != "/captures/session.yaml" {
		t.Errorf("MetaPathFor = %q", got)
	}
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
}

func TestStaticSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "still.png")
	writePNG(t, path, color.RGBA{200, 40, 40, 255})

	s, err := NewStaticSource(path, 5)
	if err != nil {
		t.Fatalf("NewStaticSource: %v", err)
	}
	defer s.Close()

	if w, h := s.Size(); w != 6 || h != 4 {
		t.Errorf("Size = %dx%d, want 6x4", w, h)
	}
	if got := s.Duration(); got != 5 {
		t.Errorf("Duration = %v, want 5", got)
	}
	a, _ := s.Frame(0)
	b, _ := s.Frame(3.7)
	if a != b {
		t.Error("Static frames are not the same image")
	}
	if got := a.RGBAAt(3, 2); got != (color.RGBA{200, 40, 40, 255}) {
		t.Errorf("Pixel = %v", got)
	}
}

func TestStaticSourceDirPicksFirstImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{0, 0, 200, 255})
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{200, 0, 0, 255})

	s, err := NewStaticSource(dir, 0)
	if err != nil {
		t.Fatalf("NewStaticSource: %v", err)
	}
	defer s.Close()

	img, _ := s.Frame(0)
	if got := img.RGBAAt(0, 0); got.R != 200 {
		t.Errorf("Picked pixel = %v, want the alphabetically first (red) image", got)
	}
}

func TestVideoSourceDecoderFailure(t *testing.T) {
	dir := t.TempDir()
	ffprobe := "#!/bin/sh\necho width=64\necho height=48\necho r_frame_rate=30/1\necho duration=2.0\n"
	if err := os.WriteFile(filepath.Join(dir, "ffprobe"), []byte(ffprobe), 0755); err != nil {
		t.Fatal(err)
	}
	// Decoder stand-in that closes its output and logs to stderr until killed
	ffmpeg := "#!/bin/sh\nexec 1>&-\nwhile :; do echo decode error >&2; done\n"
	if err := os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(ffmpeg), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	s, err := NewVideoSource("capture.mp4")
	if err != nil {
		t.Fatalf("NewVideoSource: %v", err)
	}
	defer s.Close()

	_, err = s.Frame(0)
	if err == nil {
		t.Fatal("Frame from a decoder that yields nothing must fail")
	}
	if !strings.Contains(err.Error(), "produced no frames") {
		t.Errorf("error = %q, want a no-frames error", err)
	}
}

func TestTimecodeSourceFramesDiffer(t *testing.T) {
	s, err := NewTimecodeSource(160, 120, 10, 2)
	if err != nil {
		t.Fatalf("NewTimecodeSource: %v", err)
	}
	defer s.Close()

	first, err := s.Frame(0)
	if err != nil {
		t.Fatalf("Frame(0): %v", err)
	}
	snapshot := append([]byte{}, first.Pix...)

	second, err := s.Frame(0.1)
	if err != nil {
		t.Fatalf("Frame(0.1): %v", err)
	}
	if bytes.Equal(snapshot, second.Pix) {
		t.Error("Consecutive timecode frames are identical")
	}

	// regenerating the same index must be deterministic
	again, err := s.Frame(0.04)
	if err != nil {
		t.Fatalf("Frame(0.04): %v", err)
	}
	if !bytes.Equal(snapshot, again.Pix) {
		t.Error("Regenerated frame 0 differs from its first rendering")
	}

	if _, err := s.Frame(100); err != nil {
		t.Errorf("Frame beyond duration: %v", err)
	}
}
