package project

import (
	"fmt"

	"github.com/ivlev/zoomcast/internal/camera"
	"github.com/ivlev/zoomcast/internal/config"
	"github.com/ivlev/zoomcast/internal/timeline"
)

// Project is the persisted editing session for one recording: the source
// files, the zoom segments, the clip partition and the frame styling
type Project struct {
	Version  string  `yaml:"version"`
	Video    string  `yaml:"video"`
	Events   string  `yaml:"events,omitempty"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	FPS      int     `yaml:"fps"`
	Duration float64 `yaml:"duration"`

	Segments []camera.Segment   `yaml:"segments"`
	Clips    []timeline.Clip    `yaml:"clips"`
	Style    config.StyleConfig `yaml:"style"`
}

// NewProject creates a fresh project for a recording with default styling
// and a single active clip spanning the whole duration
func NewProject(video string, width, height, fps int, duration float64) *Project {
	return &Project{
		Version:  "1.0",
		Video:    video,
		Width:    width,
		Height:   height,
		FPS:      fps,
		Duration: duration,
		Clips:    []timeline.Clip{{Start: 0, End: duration}},
		Style:    config.DefaultStyle(),
	}
}

// Validate checks the project is usable for rendering
func (p *Project) Validate() error {
	if p.Video == "" {
		return fmt.Errorf("project has no video path")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid project dimensions %dx%d", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("invalid project fps %d", p.FPS)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("invalid project duration %.3f", p.Duration)
	}
	if len(p.Clips) > 0 {
		if _, err := timeline.Load(p.Duration, p.Clips); err != nil {
			return err
		}
	}
	return nil
}

// Timeline builds the editable clip model from the persisted clip list.
// Projects saved before any timeline edit carry no clips and get the
// initial single-clip partition.
func (p *Project) Timeline() (*timeline.Timeline, error) {
	if len(p.Clips) == 0 {
		return timeline.New(p.Duration)
	}
	return timeline.Load(p.Duration, p.Clips)
}
