package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource resolves properties from a YAML document.
//
// Nested mappings flatten into dotted keys, so
//
//	cachegate:
//	  cache:
//	    ttl: 60
//	    eviction-policy: LRU
//
// yields "cachegate.cache.ttl" and "cachegate.cache.eviction-policy".
// Scalar values are read with their string forms.
type FileSource struct {
	values MapSource
}

// LoadFile parses the YAML file at the given path into a property source.
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a YAML document into a property source.
func ParseYAML(data []byte) (*FileSource, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	values := make(MapSource)
	flatten("", root, values)
	return &FileSource{values: values}, nil
}

// Lookup reads the property from the flattened document.
func (s *FileSource) Lookup(key string) (string, bool) {
	return s.values.Lookup(key)
}

func flatten(prefix string, node map[string]any, into MapSource) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch typed := value.(type) {
		case map[string]any:
			flatten(full, typed, into)
		case nil:
			// Empty nodes carry no value.
		default:
			into[full] = fmt.Sprint(typed)
		}
	}
}
