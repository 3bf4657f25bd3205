package relevance

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"moltcast/internal/services"
)

//go:embed themes.yaml
var themesYAML []byte

// Theme is a named keyword set.
type Theme struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type registryFile struct {
	Themes []Theme `yaml:"themes"`
}

var (
	registryOnce sync.Once
	registry     map[string]Theme
	registryErr  error
)

func loadRegistry() (map[string]Theme, error) {
	registryOnce.Do(func() {
		registry, registryErr = parseRegistry(themesYAML)
	})
	return registry, registryErr
}

func parseRegistry(data []byte) (map[string]Theme, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}
	out := make(map[string]Theme, len(file.Themes))
	for _, theme := range file.Themes {
		name := strings.ToLower(strings.TrimSpace(theme.Name))
		if name == "" {
			return nil, fmt.Errorf("parse themes: theme without name")
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("parse themes: duplicate theme %q", name)
		}
		keywords := make([]string, 0, len(theme.Keywords))
		seen := make(map[string]struct{}, len(theme.Keywords))
		for _, kw := range theme.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			key := fold(kw)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keywords = append(keywords, kw)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("parse themes: theme %q has no keywords", name)
		}
		out[name] = Theme{Name: name, Keywords: keywords}
	}
	return out, nil
}

// Lookup returns the named theme. Unknown names are validation errors; there
// is no empty-keyword fallback.
func Lookup(name string) (Theme, error) {
	themes, err := loadRegistry()
	if err != nil {
		return Theme{}, services.Wrap(services.ErrConfiguration, "relevance", "load themes", "", err)
	}
	key := strings.ToLower(strings.TrimSpace(name))
	theme, ok := themes[key]
	if !ok {
		return Theme{}, services.Wrap(services.ErrValidation, "relevance", "lookup theme",
			fmt.Sprintf("unknown theme %q (available: %s)", name, strings.Join(Names(), ", ")), nil)
	}
	out := Theme{Name: theme.Name, Keywords: append([]string(nil), theme.Keywords...)}
	return out, nil
}

// Names lists the registered theme names in sorted order.
func Names() []string {
	themes, err := loadRegistry()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
