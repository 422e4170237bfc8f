package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// presetEntry is one named threshold set in the YAML file. Entries are
// partial: unset keys fall back to the defaults.
type presetEntry struct {
	Name              string `yaml:"name"`
	ThresholdOverride `yaml:",inline"`
}

type presetFile struct {
	Presets []presetEntry `yaml:"presets"`
}

// LoadPresets reads named threshold presets from a YAML file. Each preset
// is the default configuration with the entry's keys applied on top.
func LoadPresets(path string) (map[string]Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse threshold presets: %w", err)
	}

	presets := make(map[string]Thresholds, len(file.Presets))
	for _, p := range file.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("threshold preset without a name")
		}
		presets[p.Name] = DefaultThresholds().Apply(p.ThresholdOverride)
	}
	return presets, nil
}
