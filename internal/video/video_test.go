package video

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func argsString(enc string, quality int) string {
	s := NewFFmpegSink(context.Background(), "out.mp4", enc, quality)
	return strings.Join(s.buildArgs(1920, 1080, 30), " ")
}

func TestBuildArgsQualityPerEncoder(t *testing.T) {
	tests := []struct {
		name    string
		encoder string
		quality int
		want    []string
		without []string
	}{
		{
			name:    "videotoolbox uses bitrate",
			encoder: "h264_videotoolbox",
			quality: 75,
			want:    []string{"-b:v 7500k", "-c:v h264_videotoolbox"},
			without: []string{"-crf", "-cq"},
		},
		{
			name:    "nvenc uses cq",
			encoder: "h264_nvenc",
			quality: 28,
			want:    []string{"-cq 28"},
			without: []string{"-crf", "-b:v"},
		},
		{
			name:    "libx264 uses crf and preset",
			encoder: "libx264",
			quality: 23,
			want:    []string{"-crf 23", "-preset medium"},
			without: []string{"-b:v", "-cq"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsString(tt.encoder, tt.quality)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("args %q missing %q", got, w)
				}
			}
			for _, w := range tt.without {
				if strings.Contains(got, w) {
					t.Errorf("args %q must not contain %q", got, w)
				}
			}
		})
	}
}

func TestBuildArgsInputFormat(t *testing.T) {
	got := argsString("libx264", 23)
	for _, w := range []string{
		"-f rawvideo",
		"-pixel_format rgba",
		"-video_size 1920x1080",
		"-framerate 30",
		"-i -",
		"-pix_fmt yuv420p",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("args %q missing %q", got, w)
		}
	}
	if !strings.HasSuffix(got, "out.mp4") {
		t.Errorf("args %q must end with the output path", got)
	}
}

func TestBuildArgsDefaultEncoder(t *testing.T) {
	s := NewFFmpegSink(context.Background(), "out.mp4", "", 23)
	if s.Encoder != "libx264" {
		t.Errorf("empty encoder name = %q, want libx264", s.Encoder)
	}
}

type nopWriteCloser struct {
	buf *bytes.Buffer
}

func (n nopWriteCloser) Write(p []byte) (int, error) { return n.buf.Write(p) }
func (n nopWriteCloser) Close() error                { return nil }

func TestWriteFrameRawBytes(t *testing.T) {
	buf := &bytes.Buffer{}
	s := &FFmpegSink{stdin: nopWriteCloser{buf}}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	if err := s.WriteFrame(img); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), img.Pix) {
		t.Errorf("stdin got %v, want pixel bytes %v", buf.Bytes(), img.Pix)
	}
	if s.frames != 1 {
		t.Errorf("frames = %d, want 1", s.frames)
	}
}

func TestWriteFrameRealignsSubImage(t *testing.T) {
	buf := &bytes.Buffer{}
	s := &FFmpegSink{stdin: nopWriteCloser{buf}}

	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			i := base.PixOffset(x, y)
			base.Pix[i] = byte(10*y + x)
			base.Pix[i+3] = 255
		}
	}
	sub := base.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	if err := s.WriteFrame(sub); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() != 2*2*4 {
		t.Fatalf("stdin got %d bytes, want %d", buf.Len(), 2*2*4)
	}
	// First pixel of the realigned frame is (1,1) of the original
	if buf.Bytes()[0] != 11 {
		t.Errorf("first pixel R = %d, want 11", buf.Bytes()[0])
	}
	// Second row starts at pixel (1,2) of the original
	if buf.Bytes()[8] != 21 {
		t.Errorf("second row R = %d, want 21", buf.Bytes()[8])
	}
}

func TestWriteFrameBeforeBegin(t *testing.T) {
	s := NewFFmpegSink(context.Background(), "out.mp4", "libx264", 23)
	if err := s.WriteFrame(image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Fatal("WriteFrame before Begin must fail")
	}
}

func TestWriteFrameErrorWhileEncoderLogs(t *testing.T) {
	dir := t.TempDir()
	// Encoder stand-in that refuses stdin and logs to stderr until killed
	script := "#!/bin/sh\nexec 0<&-\nwhile :; do echo frame rejected >&2; done\n"
	if err := os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	s := NewFFmpegSink(context.Background(), filepath.Join(dir, "out.mp4"), "libx264", 23)
	if err := s.Begin(8, 8, 30); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer s.Abort()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var err error
	for i := 0; i < 400 && err == nil; i++ {
		err = s.WriteFrame(img)
		time.Sleep(time.Millisecond)
	}
	if err == nil {
		t.Fatal("WriteFrame with closed encoder stdin must fail")
	}
	if !strings.Contains(err.Error(), "writing frame") {
		t.Errorf("error = %q, want a frame write error", err)
	}
}

func TestEndWithoutBegin(t *testing.T) {
	s := NewFFmpegSink(context.Background(), "out.mp4", "libx264", 23)
	if err := s.End(); err != nil {
		t.Fatalf("End without Begin: %v", err)
	}
	s.Abort() // must not panic
}
