package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/zoomcast/internal/config"
)

// WriteProject writes a project to a YAML file
func WriteProject(p *Project, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadProject reads a project from a YAML file. Style fields absent from
// the document keep their defaults, so old project files stay loadable.
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := &Project{Style: config.DefaultStyle()}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", path, err)
	}
	if p.Version == "" {
		p.Version = "1.0"
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}

	return p, nil
}
