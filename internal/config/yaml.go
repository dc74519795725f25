package config

import "gopkg.in/yaml.v3"

// YAMLParser is a koanf parser for YAML config files
type YAMLParser struct{}

// YAML returns a koanf parser for YAML config files
func YAML() *YAMLParser {
	return &YAMLParser{}
}

// Unmarshal parses YAML bytes into a nested map
func (p *YAMLParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Marshal renders a nested map as YAML
func (p *YAMLParser) Marshal(m map[string]any) ([]byte, error) {
	return yaml.Marshal(m)
}
