package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"

	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/director"
	"github.com/ivlev/zoomcast/internal/engine"
	"github.com/ivlev/zoomcast/internal/project"
	"github.com/ivlev/zoomcast/internal/renderer"
	"github.com/ivlev/zoomcast/internal/source"
	"github.com/ivlev/zoomcast/internal/system"
	"github.com/ivlev/zoomcast/internal/track"
	"github.com/ivlev/zoomcast/internal/video"
)

var buildVersion = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// .env позволяет переопределить директории и кодек без флагов
	if err := godotenv.Load(); err == nil {
		fmt.Println("[*] Настройки окружения загружены из .env")
	}

	capturesDir := envOr("ZOOMCAST_CAPTURES", "captures")
	outputDir := envOr("ZOOMCAST_OUTPUT", "output")
	for _, d := range []string{capturesDir, outputDir} {
		os.MkdirAll(d, 0755)
	}

	videoPtr := flag.String("video", "", "Путь к записи экрана (по умолчанию: самая свежая в captures/)")
	eventsPtr := flag.String("events", "", "Путь к событиям курсора .jsonl (по умолчанию: рядом с записью)")
	epochPtr := flag.Float64("epoch", -1, "Момент старта записи для событий трекера (-1 - автоопределение)")
	projectPtr := flag.String("project", "", "Путь к файлу проекта .yaml (по умолчанию: рядом с записью)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	widthPtr := flag.Int("width", 0, "Ширина холста (0 - по размеру записи)")
	heightPtr := flag.Int("height", 0, "Высота холста (0 - по размеру записи)")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fpsPtr := flag.Int("fps", 0, "FPS экспорта (0 - как у записи)")
	durationPtr := flag.Float64("duration", 0, "Ограничение длительности в секундах (0 - вся запись)")
	encoderPtr := flag.String("encoder", "", "Видеокодек (пусто - автоопределение)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	seekPtr := flag.Float64("seek-timeout", 0.25, "Таймаут декодера на кадр (сек), по истечении кадр дублируется")
	statsPtr := flag.Bool("stats", false, "Отчет о производительности после экспорта")
	saveProjectPtr := flag.Bool("save-project", false, "Сохранить файл проекта после экспорта")
	demoPtr := flag.Bool("demo", false, "Синтетический источник с таймкодами вместо записи")
	demoDurPtr := flag.Float64("demo-duration", 10, "Длительность демо-источника (сек)")

	// Переопределения стиля поверх файла проекта
	styleDefault := config.DefaultStyle()
	paddingPtr := flag.Int("padding", styleDefault.Padding, "Отступ вокруг кадра (px)")
	cursorPtr := flag.String("cursor", styleDefault.CursorStyle, "Стиль курсора: macos, windows, minimal, neon, outlined")
	cursorScalePtr := flag.Float64("cursor-scale", styleDefault.CursorScale, "Масштаб курсора")
	bgPtr := flag.String("bg", styleDefault.BGColor, "Цвет фона #rrggbb")
	shadowPtr := flag.Bool("shadow", styleDefault.Shadow, "Тень под кадром")
	followPtr := flag.Bool("follow", styleDefault.FollowCursor, "Камера следует за курсором")
	panPtr := flag.String("pan", styleDefault.PanSpeed, "Скорость панорамы: slow, medium, fast")
	clickFxPtr := flag.Bool("click-fx", styleDefault.ClickEffects, "Эффекты кликов")

	flag.Parse()

	var (
		src        source.Source
		rec        *track.Recording
		videoPath  string
		eventsPath string
		err        error
	)

	if *demoPtr {
		videoPath = "demo"
		src, err = source.NewTimecodeSource(1280, 720, 30, *demoDurPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка демо-источника: %v", err)
		}
		rec = demoRecording(*demoDurPtr)
		fmt.Printf("[*] Демо-режим: %gs синтетики с таймкодами\n", *demoDurPtr)
	} else {
		videoPath = *videoPtr
		autoPicked := false
		if videoPath == "" {
			latest, err := system.FindLatestCapture(capturesDir)
			if err != nil {
				log.Fatalf("[-] Ошибка: %v. Положите запись в %s/", err, capturesDir)
			}
			videoPath = latest
			autoPicked = true
			fmt.Printf("[*] Выбрана запись: %s\n", videoPath)
		}

		src, err = openSource(videoPath, *durationPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка инициализации источника: %v", err)
		}

		eventsPath = *eventsPtr
		if eventsPath == "" {
			candidate := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".jsonl"
			if _, statErr := os.Stat(candidate); statErr == nil {
				eventsPath = candidate
			} else if autoPicked {
				// Для явно указанной записи чужие события не подбираем
				if latest, findErr := system.FindLatestEvents(capturesDir); findErr == nil {
					eventsPath = latest
				}
			}
		}
	}
	defer src.Close()

	srcW, srcH := src.Size()
	srcDur := src.Duration()

	if rec == nil {
		rec = &track.Recording{}
		if eventsPath != "" {
			epoch := *epochPtr
			if epoch < 0 {
				epoch = detectEpoch(eventsPath)
			}
			r, readErr := track.ReadEventsFile(eventsPath, epoch, srcW, srcH)
			if readErr != nil {
				log.Printf("[!] События курсора не прочитаны: %v", readErr)
			} else {
				rec = r
				fmt.Printf("[*] События: %s (%d движений, %d кликов)\n", eventsPath, len(rec.Samples), len(rec.Clicks))
				if rec.Skipped > 0 {
					fmt.Printf("[!] Пропущено поврежденных строк: %d\n", rec.Skipped)
				}
			}
		}
	}

	projPath := *projectPtr
	if projPath == "" && !*demoPtr {
		candidate := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".zoomcast.yaml"
		if _, statErr := os.Stat(candidate); statErr == nil {
			projPath = candidate
		}
	}

	var proj *project.Project
	loaded := false
	if projPath != "" {
		proj, err = project.ReadProject(projPath)
		if err != nil {
			log.Fatalf("[-] Ошибка проекта: %v", err)
		}
		loaded = true
		fmt.Printf("[*] Проект: %s (зум-сегментов: %d, клипов: %d)\n", projPath, len(proj.Segments), len(proj.Clips))
	}

	fps := *fpsPtr
	duration := *durationPtr
	if loaded {
		if fps <= 0 {
			fps = proj.FPS
		}
		if duration <= 0 {
			duration = proj.Duration
		}
	}
	if fps <= 0 {
		if sfps := src.FPS(); sfps > 0 {
			fps = int(sfps + 0.5)
		} else {
			fps = 30
		}
	}
	if duration <= 0 {
		duration = srcDur
	}

	width, height := *widthPtr, *heightPtr
	switch *presetPtr {
	case "16:9":
		width, height = 1920, 1080
	case "9:16":
		width, height = 1080, 1920
	case "4:5":
		width, height = 1080, 1350
	}
	if width <= 0 || height <= 0 {
		if loaded {
			width, height = proj.Width, proj.Height
		} else {
			width, height = srcW, srcH
		}
	}
	// yuv420p требует четных размеров
	if width%2 != 0 {
		width++
	}
	if height%2 != 0 {
		height++
	}

	if !loaded {
		proj = project.NewProject(videoPath, width, height, fps, duration)
		proj.Events = eventsPath
	}

	// Авто-режиссура: по сегменту на клик, если проект еще не размечен
	if len(proj.Segments) == 0 && len(rec.Clicks) > 0 {
		segs, genErr := director.NewDirector().GenerateSegments(rec.Clicks, duration)
		if genErr != nil {
			log.Printf("[!] Авто-зум не построен: %v", genErr)
		} else {
			proj.Segments = segs
			fmt.Printf("[*] Авто-зум: создано сегментов: %d\n", len(segs))
		}
	}

	style := proj.Style
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "padding":
			style.Padding = *paddingPtr
		case "cursor":
			style.CursorStyle = *cursorPtr
		case "cursor-scale":
			style.CursorScale = *cursorScalePtr
		case "bg":
			style.BGColor = *bgPtr
		case "shadow":
			style.Shadow = *shadowPtr
		case "follow":
			style.FollowCursor = *followPtr
		case "pan":
			style.PanSpeed = *panPtr
		case "click-fx":
			style.ClickEffects = *clickFxPtr
		}
	})

	finalOutput := *outputPtr
	if finalOutput == "" {
		base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		cleanName := strings.ReplaceAll(base, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join(outputDir, fmt.Sprintf("zoomcast_%s_%s.mp4", cleanName, timestamp))
	}

	encoderName := *encoderPtr
	if encoderName == "" {
		encoderName = os.Getenv("ZOOMCAST_ENCODER")
	}
	if encoderName == "" {
		encoderName, _ = system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
	}

	quality := *qualityPtr
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75 // Хорошее качество для VideoToolbox
		case "h264_nvenc":
			quality = 28 // Эквивалент CRF для NVENC
		default:
			quality = 23 // Стандартный CRF для x264
		}
	}

	tl, err := proj.Timeline()
	if err != nil {
		log.Fatalf("[-] Ошибка таймлайна: %v", err)
	}

	comp, err := renderer.NewCompositor(width, height, style, rec)
	if err != nil {
		log.Fatalf("[-] Ошибка рендера: %v", err)
	}

	cfg := &config.Config{
		VideoPath:    videoPath,
		EventsPath:   eventsPath,
		OutputVideo:  finalOutput,
		Width:        width,
		Height:       height,
		FPS:          fps,
		Duration:     duration,
		SeekTimeout:  *seekPtr,
		VideoEncoder: encoderName,
		Quality:      quality,
		ShowStats:    *statsPtr,
		BuildVersion: buildVersion,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := video.NewFFmpegSink(ctx, finalOutput, encoderName, quality)

	job := engine.NewExportJob(cfg, src, sink, comp)
	job.Segments = proj.Segments
	job.Cuts = tl.Cuts()

	if err := job.Run(ctx); err != nil {
		log.Fatalf("[-] Ошибка экспорта: %v", err)
	}

	if *saveProjectPtr {
		if projPath == "" {
			if *demoPtr {
				// У демо нет файла записи, проект уходит в output/
				projPath = project.GenerateProjectPath(outputDir)
			} else {
				projPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".zoomcast.yaml"
			}
		}
		proj.Style = style
		if saveErr := project.WriteProject(proj, projPath); saveErr != nil {
			log.Printf("[!] Проект не сохранен: %v", saveErr)
		} else {
			fmt.Printf("[*] Проект сохранен: %s\n", projPath)
		}
	}

	if abs, absErr := filepath.Abs(finalOutput); absErr == nil {
		if clipboard.WriteAll(abs) == nil {
			fmt.Println("[*] Путь к результату скопирован в буфер обмена")
		}
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", finalOutput)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openSource выбирает реализацию источника по расширению файла
func openSource(path string, duration float64) (source.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw":
		return source.OpenRaw(path)
	case ".png", ".jpg", ".jpeg":
		return source.NewStaticSource(path, duration)
	case ".pdf":
		return source.NewDocSource(path, 0, 0, duration)
	default:
		return source.NewVideoSource(path)
	}
}

// detectEpoch определяет момент старта записи по первому событию трекера.
// Абсолютные unix-метки переводятся в относительные, уже относительные
// времена остаются как есть.
func detectEpoch(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev struct {
			Time float64 `json:"time"`
		}
		if json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		if ev.Time >= 1e6 {
			return ev.Time
		}
		return 0
	}
	return 0
}

// demoRecording синтезирует траекторию курсора с кликами, чтобы демо
// прогонял весь конвейер: сглаживание, авто-зум и эффекты кликов
func demoRecording(duration float64) *track.Recording {
	rec := &track.Recording{}
	for t := 0.0; t <= duration; t += 1.0 / 60 {
		a := t * 0.9
		rec.Samples = append(rec.Samples, track.CursorSample{
			T: t,
			X: 0.5 + 0.35*math.Sin(a),
			Y: 0.5 + 0.3*math.Sin(a*1.7+1.2),
		})
	}
	for i := 1; i <= 3; i++ {
		t := duration * float64(i) / 4
		a := t * 0.9
		rec.Clicks = append(rec.Clicks, track.ClickEvent{
			T:      t,
			X:      0.5 + 0.35*math.Sin(a),
			Y:      0.5 + 0.3*math.Sin(a*1.7+1.2),
			Button: "left",
		})
	}
	return rec
}
