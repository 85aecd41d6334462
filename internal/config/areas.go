package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// AreaRegistry maps an area name to its agent configuration. Areas are
// loaded once at startup; an unknown area is a hard authorization failure
// for every inbound request that names it.
type AreaRegistry struct {
	areas map[string]domain.AgentConfig
}

type areaFile struct {
	Areas map[string]domain.AgentConfig `yaml:"areas"`
}

func LoadAreas(path string) (*AreaRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read area config: %w", err)
	}
	var f areaFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse area config: %w", err)
	}
	if len(f.Areas) == 0 {
		return nil, fmt.Errorf("area config %s: no areas defined", path)
	}
	for name, agent := range f.Areas {
		if agent.Model == "" {
			return nil, fmt.Errorf("area %q: model is required", name)
		}
		if agent.Temperature == 0 {
			agent.Temperature = 0.7
		}
		if agent.MaxTokens == 0 {
			agent.MaxTokens = 1024
		}
		f.Areas[name] = agent
	}
	return &AreaRegistry{areas: f.Areas}, nil
}

func (r *AreaRegistry) Get(area string) (domain.AgentConfig, bool) {
	agent, ok := r.areas[area]
	return agent, ok
}

func (r *AreaRegistry) Names() []string {
	names := make([]string, 0, len(r.areas))
	for name := range r.areas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
