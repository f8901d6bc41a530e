package engine

import (
	"context"
	"fmt"
	"image"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/zoomcast/internal/source"
	"github.com/ivlev/zoomcast/internal/system"
)

type frameResult struct {
	t   float64
	img *image.RGBA
	err error
}

// frameFetcher декодирует кадры в отдельной горутине, чтобы декодер и
// рендер работали внахлест. В полете держится не больше одного запроса:
// pending==0 гарантирует, что канал запросов пуст и отправка не блокирует.
type frameFetcher struct {
	req     chan float64
	res     chan frameResult
	timeout time.Duration

	last    *image.RGBA
	pending int
	stale   int
}

func newFrameFetcher(ctx context.Context, g *errgroup.Group, src source.Source, timeout time.Duration) *frameFetcher {
	f := &frameFetcher{
		req:     make(chan float64, 1),
		res:     make(chan frameResult, 1),
		timeout: timeout,
	}
	g.Go(func() error {
		defer close(f.res)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t, ok := <-f.req:
				if !ok {
					return nil
				}
				img, err := src.Frame(t)
				r := frameResult{t: t, err: err}
				if err == nil {
					// Источник переиспользует свой буфер между кадрами,
					// поэтому копируем результат в буфер из пула
					r.img = system.GetImage(img.Bounds())
					copy(r.img.Pix, img.Pix)
				}
				select {
				case f.res <- r:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})
	return f
}

// Fetch возвращает кадр момента t. Если декодер не уложился в timeout,
// возвращается последний успешный кадр, а отставший результат будет
// принят на одном из следующих вызовов.
func (f *frameFetcher) Fetch(ctx context.Context, t float64) (*image.RGBA, error) {
	if f.pending == 0 {
		f.req <- t
		f.pending++
	}

	// Самый первый кадр ждем без лимита: без него экспортировать нечего
	var deadline <-chan time.Time
	if f.last != nil {
		timer := time.NewTimer(f.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case r, ok := <-f.res:
			if !ok {
				return nil, fmt.Errorf("декодер неожиданно остановлен")
			}
			f.pending--
			if r.err != nil {
				return nil, r.err
			}
			if f.last != nil {
				system.PutImage(f.last)
			}
			f.last = r.img
			if r.t >= t {
				return r.img, nil
			}
			// Отставший кадр от прошлого таймаута: сразу просим актуальный
			f.req <- t
			f.pending++
		case <-deadline:
			f.stale++
			return f.last, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Prefetch ставит запрос следующего кадра на время рендера текущего
func (f *frameFetcher) Prefetch(t float64) {
	if f.pending == 0 {
		f.req <- t
		f.pending++
	}
}

// Stop закрывает очередь запросов, горутина декодера завершается сама
func (f *frameFetcher) Stop() {
	close(f.req)
}

// Release возвращает кадровые буферы в пул. Вызывать после завершения
// горутины декодера, когда канал результатов уже закрыт.
func (f *frameFetcher) Release() {
	for r := range f.res {
		if r.img != nil {
			system.PutImage(r.img)
		}
	}
	if f.last != nil {
		system.PutImage(f.last)
		f.last = nil
	}
}
