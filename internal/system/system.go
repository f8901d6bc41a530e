package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// ReportResources выводит доступную память и число ядер перед экспортом.
// Предупреждает, если кадровые буферы съедают заметную долю свободной памяти.
func ReportResources(width, height, buffers int) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("[!] Не удалось получить сведения о памяти: %v", err)
		return
	}
	cores, err := cpu.Counts(true)
	if err != nil {
		cores = 0
	}

	frameBytes := uint64(width) * uint64(height) * 4
	need := frameBytes * uint64(buffers)
	fmt.Printf("[*] Память: свободно %d МБ, логических ядер: %d\n", vm.Available/1024/1024, cores)
	if vm.Available > 0 && need > vm.Available/4 {
		log.Printf("[!] Кадровые буферы (%d МБ) занимают больше четверти свободной памяти", need/1024/1024)
	}
}

// videoExtensions перечисляет контейнеры, которые умеет читать декодер,
// плюс сырой дамп захвата (.raw с YAML-описанием рядом).
var videoExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi", ".raw"}

// FindLatestCapture ищет самую свежую запись экрана в каталоге.
func FindLatestCapture(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := strings.ToLower(f.Name())
		isCapture := false
		for _, ext := range videoExtensions {
			if strings.HasSuffix(name, ext) {
				isCapture = true
				break
			}
		}
		if !isCapture {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено записей экрана", dir)
	}
	return latestFile, nil
}

// FindLatestEvents ищет самый свежий журнал трекера (.jsonl) в каталоге.
func FindLatestEvents(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".jsonl") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено журналов курсора", dir)
	}
	return latestFile, nil
}

// VideoInfo описывает геометрию и длительность видеопотока по данным ffprobe.
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

// ProbeVideo опрашивает первый видеопоток файла через ffprobe.
func ProbeVideo(path string) (VideoInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var info VideoInfo
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "width="):
			info.Width, _ = strconv.Atoi(line[len("width="):])
		case strings.HasPrefix(line, "height="):
			info.Height, _ = strconv.Atoi(line[len("height="):])
		case strings.HasPrefix(line, "r_frame_rate="):
			info.FPS = parseRate(line[len("r_frame_rate="):])
		case strings.HasPrefix(line, "duration="):
			info.Duration, _ = strconv.ParseFloat(line[len("duration="):], 64)
		}
	}

	if info.Width <= 0 || info.Height <= 0 {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: не удалось определить размер кадра", path)
	}
	if info.FPS <= 0 {
		info.FPS = 30
	}
	return info, nil
}

// parseRate разбирает дробь вида "30000/1001" или "30/1".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	cmd := exec.Command("ffmpeg", "-encoders")
	out, err := cmd.CombinedOutput()
	if err == nil {
		for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
			if strings.Contains(string(out), enc) {
				return enc, ""
			}
		}
	}
	return "libx264", ""
}
