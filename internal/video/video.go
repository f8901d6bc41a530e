package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ivlev/zoomcast/internal/system"
)

// Sink принимает отрендеренные кадры строго по порядку воспроизведения.
// WriteFrame блокируется, пока потребитель занят: рендер-цикл физически
// не может убежать вперед энкодера.
type Sink interface {
	Begin(width, height, fps int) error
	WriteFrame(img image.Image) error
	// End сигнализирует конец потока и ждет потребителя. При ошибке
	// потребитель удаляет недописанный файл и возвращает причину.
	End() error
	// Abort прерывает потребителя и удаляет частичный результат.
	Abort()
}

// FFmpegSink передает raw RGBA кадры процессу ffmpeg через stdin.
// Код завершения процесса является истиной в вопросе успеха экспорта.
type FFmpegSink struct {
	OutputPath string
	Encoder    string
	Quality    int

	ctx    context.Context
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *system.LogBuffer
	frames int
}

func NewFFmpegSink(ctx context.Context, outputPath, encoder string, quality int) *FFmpegSink {
	if encoder == "" {
		encoder = "libx264"
	}
	return &FFmpegSink{
		OutputPath: outputPath,
		Encoder:    encoder,
		Quality:    quality,
		ctx:        ctx,
	}
}

func (s *FFmpegSink) Begin(width, height, fps int) error {
	if s.cmd != nil {
		return fmt.Errorf("sink already started")
	}

	cmd := exec.CommandContext(s.ctx, "ffmpeg", s.buildArgs(width, height, fps)...)
	// ffmpeg пишет stderr до самой смерти, а errTail читается и в момент
	// ошибки записи кадра, когда процесс еще жив
	stderr := &system.LogBuffer{}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stderr = stderr
	s.frames = 0
	return nil
}

func (s *FFmpegSink) buildArgs(width, height, fps int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", s.Encoder,
	}

	// Качество в зависимости от энкодера
	switch s.Encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := s.Quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", s.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", s.Quality), "-preset", "medium")
	}

	args = append(args, s.OutputPath)
	return args
}

func (s *FFmpegSink) WriteFrame(img image.Image) error {
	if s.stdin == nil {
		return fmt.Errorf("sink not started")
	}
	if err := s.writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("writing frame %d: %w%s", s.frames, err, s.errTail())
	}
	s.frames++
	return nil
}

func (s *FFmpegSink) writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if ok && rgba.Stride == bounds.Dx()*4 && rgba.Rect.Min.X == 0 && rgba.Rect.Min.Y == 0 {
		_, err := w.Write(rgba.Pix)
		return err
	}

	tmp := system.GetImage(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(tmp, tmp.Bounds(), img, bounds.Min, draw.Src)
	_, err := w.Write(tmp.Pix)
	system.PutImage(tmp)
	return err
}

func (s *FFmpegSink) End() error {
	if s.cmd == nil {
		return nil
	}
	s.stdin.Close()
	err := s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil

	if err != nil {
		os.Remove(s.OutputPath)
		return fmt.Errorf("ffmpeg exited abnormally: %w%s", err, s.errTail())
	}
	if s.frames == 0 {
		os.Remove(s.OutputPath)
		return fmt.Errorf("no frames were written to %s", s.OutputPath)
	}
	return nil
}

func (s *FFmpegSink) Abort() {
	if s.cmd == nil {
		return
	}
	s.stdin.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	os.Remove(s.OutputPath)
}

func (s *FFmpegSink) errTail() string {
	if s.stderr == nil {
		return ""
	}
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return ""
	}
	// Самое интересное ffmpeg пишет в последних строках
	lines := strings.Split(msg, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return " (" + strings.Join(lines, "; ") + ")"
}
