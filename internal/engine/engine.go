package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/zoomcast/internal/camera"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/renderer"
	"github.com/ivlev/zoomcast/internal/source"
	"github.com/ivlev/zoomcast/internal/system"
	"github.com/ivlev/zoomcast/internal/timeline"
	"github.com/ivlev/zoomcast/internal/video"
)

const (
	// Глубина очереди кодирования: рендер может убежать вперед энкодера
	// максимум на столько кадров, дальше его тормозит канал
	writeQueueDepth = 2

	// Таймаут ожидания декодера, если в конфиге не задан
	defaultSeekTimeout = 250 * time.Millisecond
)

// ProgressFunc вызывается после каждого записанного кадра
type ProgressFunc func(done, total int, rate, eta float64)

// ExportJob прогоняет запись через конвейер декодер -> рендер -> кодек.
// Рендер строго последовательный: сглаживание камеры несет состояние
// от кадра к кадру.
type ExportJob struct {
	Config     *config.Config
	Source     source.Source
	Sink       video.Sink
	Compositor *renderer.Compositor
	Segments   []camera.Segment
	Cuts       []timeline.CutInterval
	Progress   ProgressFunc
}

func NewExportJob(cfg *config.Config, src source.Source, sink video.Sink, comp *renderer.Compositor) *ExportJob {
	return &ExportJob{
		Config:     cfg,
		Source:     src,
		Sink:       sink,
		Compositor: comp,
	}
}

func (e *ExportJob) Run(ctx context.Context) error {
	startTime := time.Now()

	fps := e.Config.FPS
	if fps <= 0 {
		return fmt.Errorf("некорректный FPS: %d", fps)
	}
	duration := e.Config.Duration
	if duration <= 0 {
		duration = e.Source.Duration()
	}
	if duration <= 0 {
		return fmt.Errorf("источник не содержит кадров")
	}

	// Кандидаты: кадры 0..ceil(duration*fps); попавшие в вырезанные
	// интервалы пропускаются, остальные идут подряд без пауз
	candidates := int(math.Ceil(duration * float64(fps)))
	times := make([]float64, 0, candidates)
	for i := 0; i < candidates; i++ {
		t := float64(i) / float64(fps)
		if timeline.InAny(e.Cuts, t) {
			continue
		}
		times = append(times, t)
	}
	total := len(times)
	if total == 0 {
		return fmt.Errorf("после вырезок не осталось ни одного кадра")
	}

	fmt.Println("--- [EXPORT: ZOOMCAST ENGINE] ---")
	fmt.Printf("[*] Источник: %s | Длительность: %.2fs\n", e.Config.VideoPath, duration)
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Кодек: %s\n", e.Config.Width, e.Config.Height, fps, e.Config.VideoEncoder)
	if cut := candidates - total; cut > 0 {
		fmt.Printf("[*] Вырезано кадров: %d (интервалов: %d)\n", cut, len(e.Cuts))
	}
	system.ReportResources(e.Config.Width, e.Config.Height, writeQueueDepth+2)
	fmt.Println("-----------------------------")

	if err := e.Sink.Begin(e.Config.Width, e.Config.Height, fps); err != nil {
		return fmt.Errorf("ошибка запуска энкодера: %w", err)
	}

	timeout := time.Duration(e.Config.SeekTimeout * float64(time.Second))
	if timeout <= 0 {
		timeout = defaultSeekTimeout
	}

	e.Compositor.Reset()

	g, gctx := errgroup.WithContext(ctx)
	fetcher := newFrameFetcher(gctx, g, e.Source, timeout)
	writeCh := make(chan *image.RGBA, writeQueueDepth)

	// Кодирование: единственный потребитель очереди. Запись в stdin
	// ffmpeg блокируется, когда энкодер занят, очередь заполняется и
	// рендер-цикл встает на отправке. Так конвейер не копит кадры.
	g.Go(func() error {
		for img := range writeCh {
			err := e.Sink.WriteFrame(img)
			system.PutImage(img)
			if err != nil {
				return err
			}
		}
		return nil
	})

	renderStart := time.Now()
	done := 0
	var runErr error

	for i, t := range times {
		img, err := fetcher.Fetch(gctx, t)
		if err != nil {
			runErr = fmt.Errorf("кадр %.3fs: %w", t, err)
			break
		}
		if i+1 < len(times) {
			fetcher.Prefetch(times[i+1])
		}

		_, frame := e.Compositor.Render(img, t, e.Segments)

		// Канвас рендера переиспользуется, в очередь уходит копия
		buf := system.GetImage(frame.Bounds())
		copy(buf.Pix, frame.Pix)
		select {
		case writeCh <- buf:
		case <-gctx.Done():
			system.PutImage(buf)
			runErr = gctx.Err()
		}
		if runErr != nil {
			break
		}

		done++
		e.report(done, total, renderStart)
	}

	close(writeCh)
	fetcher.Stop()
	gerr := g.Wait()
	if runErr == nil {
		runErr = gerr
	} else if isCancel(runErr) && gerr != nil && !isCancel(gerr) && ctx.Err() == nil {
		// Отмена пришла не снаружи, а от ошибки в группе: она и есть
		// настоящая причина
		runErr = gerr
	}
	fetcher.Release()

	if runErr != nil {
		e.Sink.Abort()
		return runErr
	}
	if err := e.Sink.End(); err != nil {
		return fmt.Errorf("ошибка финализации: %w", err)
	}

	totalTime := time.Since(startTime)
	fmt.Printf("[+] Экспорт завершен: %d кадров, %.2fs видео, зум-сегментов: %d\n",
		done, float64(done)/float64(fps), len(e.Segments))
	if fetcher.stale > 0 {
		fmt.Printf("[!] Декодер не успел %d раз(а), кадры продублированы\n", fetcher.stale)
	}

	if e.Config.ShowStats {
		e.writeStats(done, totalTime, time.Since(renderStart), fetcher.stale)
	}
	return nil
}

// report печатает прогресс раз в секунду выходного видео; колбэк
// прогресса вызывается на каждом кадре
func (e *ExportJob) report(done, total int, start time.Time) {
	elapsed := time.Since(start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(done) / elapsed
	}
	eta := 0.0
	if rate > 0 {
		eta = float64(total-done) / rate
	}
	if e.Progress != nil {
		e.Progress(done, total, rate, eta)
	}
	if done == total || done%e.Config.FPS == 0 {
		fmt.Printf("[>] Кадры: %d/%d (%.1f fps, осталось ~%.0fs)\n", done, total, rate, eta)
	}
}

func (e *ExportJob) writeStats(frames int, totalTime, renderTime time.Duration, stale int) {
	fps := float64(frames) / totalTime.Seconds()
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Render+Encode: %.2fs\n"+
			"Decoder Stalls: %d\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		e.Config.BuildVersion, totalTime.Seconds(), renderTime.Seconds(), stale, fps,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		e.Config.BuildVersion,
		filepath.Base(e.Config.VideoPath),
		frames,
		totalTime.Seconds(),
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
