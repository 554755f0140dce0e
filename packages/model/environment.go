package model

// VariableType is the optional type hint carried by an environment variable.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableNumber  VariableType = "number"
	VariableBoolean VariableType = "boolean"
)

// Variable is a single key/value entry of an Environment.
type Variable struct {
	Key      string       `json:"key" yaml:"key"`
	Value    string       `json:"value" yaml:"value"`
	Type     VariableType `json:"type,omitempty" yaml:"type,omitempty"`
	Disabled bool         `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Environment is a named set of variables. At most one environment is active
// at a time; the storage layer enforces that.
type Environment struct {
	ID           string     `json:"id" yaml:"id,omitempty"`
	Name         string     `json:"name" yaml:"name"`
	Variables    []Variable `json:"variables" yaml:"variables"`
	IsActive     bool       `json:"isActive" yaml:"-"`
	CollectionID string     `json:"collectionId,omitempty" yaml:"collectionId,omitempty"`
	CreatedAt    int64      `json:"createdAt" yaml:"-"` // unix milliseconds
	UpdatedAt    int64      `json:"updatedAt" yaml:"-"` // unix milliseconds
}

// Lookup returns the value of the first enabled variable named key.
// Duplicate keys are tolerated; the first one wins.
func (e *Environment) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, v := range e.Variables {
		if v.Key == key && !v.Disabled {
			return v.Value, true
		}
	}
	return "", false
}

// Clone returns a deep copy so callers can hand out snapshots.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	c := *e
	c.Variables = append([]Variable(nil), e.Variables...)
	return &c
}
