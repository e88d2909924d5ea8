package homepage

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Homepage template variables ({{HOMEPAGE_VAR_...}}) are not resolvable here
var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Load reads a Homepage bookmarks.yaml or services.yaml file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read homepage file: %w", err)
	}
	return Parse(data)
}

// Parse returns the entries of a Homepage file. List elements keep their
// file order. A mapping holding several groups or items is walked in key
// order. Entries whose props cannot be read are skipped.
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(stripTemplateVariables(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse homepage yaml: %w", err)
	}

	entries := make([]Entry, 0)
	for _, groups := range doc {
		for _, group := range slices.Sorted(maps.Keys(groups)) {
			for _, item := range groups[group] {
				for _, name := range slices.Sorted(maps.Keys(item)) {
					p, ok := decodeProps(item[name])
					if !ok {
						continue
					}
					entries = append(entries, Entry{Group: group, Name: name, Href: p.Href})
				}
			}
		}
	}
	return entries, nil
}

// decodeProps accepts both the services (mapping) and the bookmarks (list
// with one mapping) layouts.
func decodeProps(raw any) (props, bool) {
	if list, ok := raw.([]any); ok {
		if len(list) == 0 {
			return props{}, false
		}
		raw = list[0]
	}
	if _, ok := raw.(map[string]any); !ok {
		return props{}, false
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return props{}, false
	}
	var p props
	if err := yaml.Unmarshal(data, &p); err != nil {
		return props{}, false
	}
	return p, true
}

func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
