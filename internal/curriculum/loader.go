package curriculum

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a saved curriculum from a .json, .yaml or .yml file and
// validates it. YAML uses the same camelCase field names as JSON.
func LoadFile(path string) (*Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported curriculum file extension %q", filepath.Ext(path))
	}

	var c Curriculum
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if problems := Validate(&c); len(problems) > 0 {
		return nil, fmt.Errorf("invalid curriculum in %s: %s", path, strings.Join(problems, "; "))
	}
	return &c, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
