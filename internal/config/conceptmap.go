package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

//go:embed concept_map.yml
var defaultConceptMapYAML []byte

// DerivedMetric describes a metric computed from other metrics rather than
// read from a filing
type DerivedMetric struct {
	Expression string   `yaml:"expression"`
	Inputs     []string `yaml:"inputs"`
}

// ConceptMap maps internal metric names to taxonomy concept names per
// accounting standard. Keys are case-sensitive. The table is loaded once at
// construction and read-only for the process lifetime.
type ConceptMap struct {
	Concepts       map[string]map[string][]string `yaml:"concepts"`
	DerivedMetrics map[string]DerivedMetric       `yaml:"derived_metrics"`
	TTMMetrics     []string                       `yaml:"ttm_metrics"`
}

// Lookup returns the ordered concept candidates for a metric under the given
// standard, or nil when no mapping exists
func (m *ConceptMap) Lookup(metric, standard string) []string {
	if m == nil {
		return nil
	}
	standards, ok := m.Concepts[metric]
	if !ok {
		return nil
	}
	return standards[standard]
}

// Metrics returns the sorted list of metric names the map covers
func (m *ConceptMap) Metrics() []string {
	names := make([]string, 0, len(m.Concepts))
	for name := range m.Concepts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultConceptMap parses the embedded concept-map table
func DefaultConceptMap() (*ConceptMap, error) {
	return parseConceptMap(defaultConceptMapYAML)
}

// LoadConceptMap reads a concept-map table from a YAML file, falling back to
// the embedded default when path is empty
func LoadConceptMap(path string) (*ConceptMap, error) {
	if path == "" {
		return DefaultConceptMap()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read concept map %s: %w", path, err)
	}
	return parseConceptMap(data)
}

func parseConceptMap(data []byte) (*ConceptMap, error) {
	var m ConceptMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse concept map: %w", err)
	}
	if len(m.Concepts) == 0 {
		return nil, fmt.Errorf("concept map contains no concepts")
	}
	return &m, nil
}
