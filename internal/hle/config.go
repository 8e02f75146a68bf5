package hle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlModule mirrors Module's shape for decoding an on-disk registry file,
// so operators can add or override HLE policy for a title without a
// rebuild.
type yamlModule struct {
	Name    string        `yaml:"name"`
	Mode    string        `yaml:"default_mode"`
	Library []yamlLibrary `yaml:"libraries"`
}

type yamlLibrary struct {
	Name         string   `yaml:"name"`
	Mode         string   `yaml:"default_mode"`
	Functions    []string `yaml:"functions"`
	LowPriority  []string `yaml:"low_priority"`
	HighPriority []string `yaml:"high_priority"`
	LleSymbols   []string `yaml:"lle_symbols"`
}

func parseMode(s string) (Mode, error) {
	switch s {
	case "", "lle":
		return LLE, nil
	case "hle":
		return HLE, nil
	default:
		return LLE, fmt.Errorf("hle: unknown default_mode %q", s)
	}
}

// LoadConfig decodes a YAML HLE registry file and adds every module it
// describes to r. A module whose name is already in r replaces that entry,
// so the file layers operator overrides on top of the modules
// self-registered by internal/hle/modules/* packages.
func LoadConfig(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("hle: reading config %q: %w", path, err)
	}

	var doc struct {
		Modules []yamlModule `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("hle: parsing config %q: %w", path, err)
	}

	for _, ym := range doc.Modules {
		mode, err := parseMode(ym.Mode)
		if err != nil {
			return fmt.Errorf("hle: module %q: %w", ym.Name, err)
		}
		m := Module{Name: ym.Name, DefaultMode: mode}
		for _, yl := range ym.Library {
			libMode, err := parseMode(yl.Mode)
			if err != nil {
				return fmt.Errorf("hle: module %q library %q: %w", ym.Name, yl.Name, err)
			}
			m.Libraries = append(m.Libraries, Library{
				Name:         yl.Name,
				DefaultMode:  libMode,
				Functions:    yl.Functions,
				LowPriority:  yl.LowPriority,
				HighPriority: yl.HighPriority,
				LleSymbols:   yl.LleSymbols,
			})
		}
		if existing := r.module(m.Name); existing != nil {
			*existing = m
		} else {
			r.Add(m)
		}
	}
	return nil
}
