package storage

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// EnvironmentUpdate is a partial update. Nil fields are left unchanged.
type EnvironmentUpdate struct {
	Name         *string
	Variables    []model.Variable
	IsActive     *bool
	CollectionID *string
}

func (t *txn) environments() ([]model.Environment, error) {
	var envs []model.Environment
	if _, err := t.get(keyEnvironments, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

func (t *txn) putEnvironments(envs []model.Environment) error {
	if envs == nil {
		envs = []model.Environment{}
	}
	return t.put(keyEnvironments, envs)
}

// activate marks id as the only active environment.
func (t *txn) activate(envs []model.Environment, id string) error {
	for i := range envs {
		envs[i].IsActive = envs[i].ID == id
	}
	return t.put(keyActiveEnvironment, id)
}

// clearActiveIf drops the active pointer when it names one of ids.
func (t *txn) clearActiveIf(ids map[string]bool) error {
	active, err := t.getString(keyActiveEnvironment)
	if err != nil {
		return err
	}
	if active != "" && ids[active] {
		return t.del(keyActiveEnvironment)
	}
	return nil
}

func findEnvironment(envs []model.Environment, id string) int {
	for i := range envs {
		if envs[i].ID == id {
			return i
		}
	}
	return -1
}

// SaveEnvironment stores env under a new id. If env is active, every other
// environment is deactivated.
func (s *Store) SaveEnvironment(env model.Environment) (*model.Environment, error) {
	saved := env.Clone()
	if saved.Variables == nil {
		saved.Variables = []model.Variable{}
	}
	err := s.update(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		now := s.nowMillis()
		saved.ID = newID("env")
		saved.CreatedAt = now
		saved.UpdatedAt = now

		envs = append(envs, *saved)
		if saved.IsActive {
			if err := t.activate(envs, saved.ID); err != nil {
				return err
			}
		}
		return t.putEnvironments(envs)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// LoadEnvironments returns every environment in insertion order.
func (s *Store) LoadEnvironments() ([]model.Environment, error) {
	var envs []model.Environment
	err := s.view(func(t *txn) error {
		var err error
		envs, err = t.environments()
		return err
	})
	return envs, err
}

func (s *Store) GetEnvironment(id string) (*model.Environment, error) {
	envs, err := s.LoadEnvironments()
	if err != nil {
		return nil, err
	}
	if i := findEnvironment(envs, id); i >= 0 {
		return envs[i].Clone(), nil
	}
	return nil, fmt.Errorf("environment %s: %w", id, ErrNotFound)
}

// FindEnvironment looks an environment up by id, then exact name, then
// case-insensitive name.
func (s *Store) FindEnvironment(nameOrID string) (*model.Environment, error) {
	envs, err := s.LoadEnvironments()
	if err != nil {
		return nil, err
	}
	if i := findEnvironment(envs, nameOrID); i >= 0 {
		return envs[i].Clone(), nil
	}
	for i := range envs {
		if envs[i].Name == nameOrID {
			return envs[i].Clone(), nil
		}
	}
	for i := range envs {
		if strings.EqualFold(envs[i].Name, nameOrID) {
			return envs[i].Clone(), nil
		}
	}
	return nil, fmt.Errorf("environment %q: %w", nameOrID, ErrNotFound)
}

// UpdateEnvironment applies u to the environment id. Activating it
// deactivates every other environment; deactivating the active one clears
// the active pointer.
func (s *Store) UpdateEnvironment(id string, u EnvironmentUpdate) (*model.Environment, error) {
	var updated *model.Environment
	err := s.update(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		i := findEnvironment(envs, id)
		if i < 0 {
			return fmt.Errorf("environment %s: %w", id, ErrNotFound)
		}

		e := &envs[i]
		if u.Name != nil {
			e.Name = *u.Name
		}
		if u.Variables != nil {
			e.Variables = append([]model.Variable(nil), u.Variables...)
		}
		if u.CollectionID != nil {
			e.CollectionID = *u.CollectionID
		}
		e.UpdatedAt = s.nowMillis()

		if u.IsActive != nil {
			if *u.IsActive {
				if err := t.activate(envs, id); err != nil {
					return err
				}
			} else {
				e.IsActive = false
				if err := t.clearActiveIf(map[string]bool{id: true}); err != nil {
					return err
				}
			}
		}

		updated = envs[i].Clone()
		return t.putEnvironments(envs)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEnvironment removes id, clearing the active pointer if it was active.
func (s *Store) DeleteEnvironment(id string) error {
	return s.update(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		i := findEnvironment(envs, id)
		if i < 0 {
			return fmt.Errorf("environment %s: %w", id, ErrNotFound)
		}
		if err := t.clearActiveIf(map[string]bool{id: true}); err != nil {
			return err
		}
		return t.putEnvironments(append(envs[:i], envs[i+1:]...))
	})
}

// DeleteEnvironmentsByCollectionID removes every environment linked to
// collectionID and returns how many were removed.
func (s *Store) DeleteEnvironmentsByCollectionID(collectionID string) (int, error) {
	var n int
	err := s.update(func(t *txn) error {
		var err error
		n, err = t.deleteEnvironmentsLinkedTo(map[string]bool{collectionID: true})
		return err
	})
	return n, err
}

func (t *txn) deleteEnvironmentsLinkedTo(collectionIDs map[string]bool) (int, error) {
	envs, err := t.environments()
	if err != nil {
		return 0, err
	}
	kept := envs[:0]
	removed := make(map[string]bool)
	for _, e := range envs {
		if e.CollectionID != "" && collectionIDs[e.CollectionID] {
			removed[e.ID] = true
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := t.clearActiveIf(removed); err != nil {
		return 0, err
	}
	return len(removed), t.putEnvironments(kept)
}

// SetActiveEnvironment makes id the only active environment.
func (s *Store) SetActiveEnvironment(id string) error {
	return s.update(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		if findEnvironment(envs, id) < 0 {
			return fmt.Errorf("environment %s: %w", id, ErrNotFound)
		}
		if err := t.activate(envs, id); err != nil {
			return err
		}
		return t.putEnvironments(envs)
	})
}

// ClearActiveEnvironment deactivates every environment.
func (s *Store) ClearActiveEnvironment() error {
	return s.update(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		for i := range envs {
			envs[i].IsActive = false
		}
		if err := t.del(keyActiveEnvironment); err != nil {
			return err
		}
		return t.putEnvironments(envs)
	})
}

// ActiveEnvironment returns a snapshot of the active environment, or nil
// when none is active. The active pointer is consulted first, then any
// environment flagged active.
func (s *Store) ActiveEnvironment() (*model.Environment, error) {
	var active *model.Environment
	err := s.view(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		id, err := t.getString(keyActiveEnvironment)
		if err != nil {
			return err
		}
		if id != "" {
			if i := findEnvironment(envs, id); i >= 0 {
				active = envs[i].Clone()
			}
			return nil
		}
		for i := range envs {
			if envs[i].IsActive {
				active = envs[i].Clone()
				return nil
			}
		}
		return nil
	})
	return active, err
}

// UpdateVariable sets the value of the first variable named key.
func (s *Store) UpdateVariable(envID, key, value string) error {
	return s.modifyVariables(envID, func(vars []model.Variable) ([]model.Variable, error) {
		for i := range vars {
			if vars[i].Key == key {
				vars[i].Value = value
				return vars, nil
			}
		}
		return nil, fmt.Errorf("variable %s: %w", key, ErrNotFound)
	})
}

// SetVariable replaces the first variable with v's key, or appends v.
func (s *Store) SetVariable(envID string, v model.Variable) error {
	return s.modifyVariables(envID, func(vars []model.Variable) ([]model.Variable, error) {
		for i := range vars {
			if vars[i].Key == v.Key {
				vars[i] = v
				return vars, nil
			}
		}
		return append(vars, v), nil
	})
}

// UnsetVariable removes every variable named key.
func (s *Store) UnsetVariable(envID, key string) error {
	return s.modifyVariables(envID, func(vars []model.Variable) ([]model.Variable, error) {
		kept := vars[:0]
		for _, v := range vars {
			if v.Key != key {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(vars) {
			return nil, fmt.Errorf("variable %s: %w", key, ErrNotFound)
		}
		return kept, nil
	})
}

func (s *Store) modifyVariables(envID string, fn func([]model.Variable) ([]model.Variable, error)) error {
	return s.update(func(t *txn) error {
		envs, err := t.environments()
		if err != nil {
			return err
		}
		i := findEnvironment(envs, envID)
		if i < 0 {
			return fmt.Errorf("environment %s: %w", envID, ErrNotFound)
		}
		vars, err := fn(envs[i].Variables)
		if err != nil {
			return err
		}
		envs[i].Variables = vars
		envs[i].UpdatedAt = s.nowMillis()
		return t.putEnvironments(envs)
	})
}
