package source

import (
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ivlev/zoomcast/internal/system"
)

// Source yields capture frames by presentation time. Implementations are
// not safe for concurrent use; the export loop is the single caller. The
// returned image may be reused by the next Frame call.
type Source interface {
	Frame(t float64) (*image.RGBA, error)
	Size() (width, height int)
	FPS() float64
	Duration() float64
	Close() error
}

// VideoSource decodes a recording through ffmpeg into raw RGBA frames.
// Export walks time forward, so decoding stays sequential; a backward
// jump restarts the decoder with an input seek.
type VideoSource struct {
	path   string
	width  int
	height int
	fps    float64
	dur    float64
	frames int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *system.LogBuffer
	buf    *image.RGBA
	next   int // frame index the pipe yields next
	eof    bool
}

func NewVideoSource(path string) (*VideoSource, error) {
	info, err := system.ProbeVideo(path)
	if err != nil {
		return nil, err
	}
	return &VideoSource{
		path:   path,
		width:  info.Width,
		height: info.Height,
		fps:    info.FPS,
		dur:    info.Duration,
		frames: int(info.Duration*info.FPS + 0.5),
		buf:    image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)),
	}, nil
}

func (s *VideoSource) Frame(t float64) (*image.RGBA, error) {
	idx := int(t*s.fps + 1e-6)
	if idx < 0 {
		idx = 0
	}
	if s.frames > 0 && idx >= s.frames {
		idx = s.frames - 1
	}

	if s.cmd == nil || idx < s.next-1 {
		if err := s.start(idx); err != nil {
			return nil, err
		}
	}
	for !s.eof && s.next <= idx {
		if err := s.read(); err != nil {
			return nil, err
		}
	}
	return s.buf, nil
}

func (s *VideoSource) Size() (int, int) {
	return s.width, s.height
}

func (s *VideoSource) FPS() float64 {
	return s.fps
}

func (s *VideoSource) Duration() float64 {
	return s.dur
}

func (s *VideoSource) Close() error {
	s.stop()
	return nil
}

func (s *VideoSource) start(idx int) error {
	s.stop()

	args := []string{"-v", "error"}
	if idx > 0 {
		args = append(args, "-ss", strconv.FormatFloat(float64(idx)/s.fps, 'f', 4, 64))
	}
	args = append(args,
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)

	cmd := exec.Command("ffmpeg", args...)
	stderr := &system.LogBuffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting decoder: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.stderr = stderr
	s.next = idx
	s.eof = false
	return nil
}

func (s *VideoSource) read() error {
	if _, err := io.ReadFull(s.stdout, s.buf.Pix); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// metadata duration often overshoots the stream by a frame
			// or two; hold the last decoded frame for the remainder
			if s.next == 0 {
				return fmt.Errorf("decoder produced no frames for %s%s", s.path, s.errTail())
			}
			s.eof = true
			return nil
		}
		return fmt.Errorf("reading decoded frame %d: %w%s", s.next, err, s.errTail())
	}
	s.next++
	return nil
}

func (s *VideoSource) errTail() string {
	if s.stderr == nil {
		return ""
	}
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return ""
	}
	return " (" + msg + ")"
}

func (s *VideoSource) stop() {
	if s.cmd == nil {
		return
	}
	s.stdout.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
	s.stderr = nil
}
