// ABOUTME: YAML-backed credential/capability table, loaded once at daemon startup.
// ABOUTME: Structured (de)serialization via gopkg.in/yaml.v3 struct tags.
package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the credential/capability table.
type FileConfig struct {
	Master      string              `yaml:"master_credential"`
	Credentials map[string][]string `yaml:"credentials"` // credential -> capability list
}

// LoadRegistry reads a YAML credential/capability file and builds a Registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading auth config %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing auth config %s: %w", path, err)
	}
	return NewRegistry(fc.Credentials, fc.Master), nil
}
