package track

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// rawEvent mirrors one JSON line emitted by the tracker helper process.
type rawEvent struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button"`
	Time   float64 `json:"time"`
}

// Recording is the ingested tracker output for one capture session.
type Recording struct {
	Samples []CursorSample
	Clicks  []ClickEvent
	Skipped int // malformed or unknown lines ignored during ingestion
}

// ReadEvents parses tracker output, one JSON object per line. Event times are
// absolute wall-clock seconds; epoch is the shared recording-start instant.
// Positions are pixel coordinates on a width by height capture and come out
// normalised to [0,1]. Malformed lines are skipped individually; a glitchy
// tracker must never abort ingestion.
func ReadEvents(r io.Reader, epoch float64, width, height int) (*Recording, error) {
	rec := &Recording{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var ev rawEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			rec.Skipped++
			continue
		}

		t := ev.Time - epoch
		if t < 0 || width <= 0 || height <= 0 {
			rec.Skipped++
			continue
		}
		x := clamp01(ev.X / float64(width))
		y := clamp01(ev.Y / float64(height))

		switch ev.Type {
		case "move":
			rec.Samples = append(rec.Samples, CursorSample{T: t, X: x, Y: y})
		case "click":
			button := ev.Button
			if button == "" {
				button = "left"
			}
			rec.Clicks = append(rec.Clicks, ClickEvent{T: t, X: x, Y: y, Button: button})
		default:
			rec.Skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	SortByTime(rec.Samples, rec.Clicks)
	rec.Clicks = DedupeClicks(rec.Clicks)
	return rec, nil
}

// ReadEventsFile is ReadEvents over a file on disk.
func ReadEventsFile(path string, epoch float64, width, height int) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEvents(f, epoch, width, height)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
