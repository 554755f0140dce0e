package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// environmentFile is the YAML layout of an exported environment.
type environmentFile struct {
	Name      string           `yaml:"name"`
	Variables []model.Variable `yaml:"variables"`
}

// LoadEnvironmentFile reads an environment from a YAML file. Two layouts are
// accepted: the exported form (name + variables list) and a flat
// key: value mapping, in which case the environment is named after the file.
func LoadEnvironmentFile(path string) (*model.Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open environment file: %w", err)
	}

	var doc environmentFile
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Variables) > 0 {
		if doc.Name == "" {
			doc.Name = nameFromPath(path)
		}
		return &model.Environment{Name: doc.Name, Variables: doc.Variables}, nil
	}

	var flat map[string]string
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("parsing environment file: %w", err)
	}

	name := flat["name"]
	delete(flat, "name")
	if name == "" {
		name = nameFromPath(path)
	}
	return &model.Environment{Name: name, Variables: sortedVariables(flat)}, nil
}

// SaveEnvironmentFile writes env in the exported YAML layout.
func SaveEnvironmentFile(env *model.Environment, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(environmentFile{Name: env.Name, Variables: env.Variables})
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadDotEnv parses a .env file into an environment named after the file.
// Variables are ordered by key.
func LoadDotEnv(path string) (*model.Environment, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return &model.Environment{Name: nameFromPath(path), Variables: sortedVariables(vars)}, nil
}

func sortedVariables(m map[string]string) []model.Variable {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]model.Variable, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, model.Variable{Key: k, Value: m[k], Type: model.VariableString})
	}
	return vars
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.TrimPrefix(name, ".")
	if name == "" {
		return strings.TrimPrefix(base, ".")
	}
	return name
}
