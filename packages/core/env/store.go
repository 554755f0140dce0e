package env

import (
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// Source resolves a single variable name.
type Source interface {
	Lookup(name string) (string, bool)
}

// VariableStore is a read-only view over one environment's variables.
// A VariableStore over a nil environment resolves nothing.
type VariableStore struct {
	env *model.Environment
}

func NewVariableStore(env *model.Environment) *VariableStore {
	return &VariableStore{env: env}
}

// Lookup returns the value of the first enabled variable named name.
func (s *VariableStore) Lookup(name string) (string, bool) {
	return s.env.Lookup(name)
}

// Names returns the enabled variable names in declaration order, without
// duplicates.
func (s *VariableStore) Names() []string {
	if s.env == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, v := range s.env.Variables {
		if v.Disabled || seen[v.Key] {
			continue
		}
		seen[v.Key] = true
		names = append(names, v.Key)
	}
	return names
}
