package storage

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// CollectionUpdate is a partial update. Nil fields are left unchanged; set
// ClearAuth to make the collection inherit again.
type CollectionUpdate struct {
	Name        *string
	Description *string
	Auth        *model.RequestAuth
	ClearAuth   bool
}

func (t *txn) collections() ([]model.Collection, error) {
	var cols []model.Collection
	if _, err := t.get(keyCollections, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

func (t *txn) putCollections(cols []model.Collection) error {
	if cols == nil {
		cols = []model.Collection{}
	}
	return t.put(keyCollections, cols)
}

func findCollection(cols []model.Collection, id string) int {
	for i := range cols {
		if cols[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneCollection(c model.Collection) *model.Collection {
	c.Collections = append([]string(nil), c.Collections...)
	c.Auth = c.Auth.Clone()
	return &c
}

// SaveCollection stores c under a new id and links it into its parent.
func (s *Store) SaveCollection(c model.Collection) (*model.Collection, error) {
	saved := cloneCollection(c)
	saved.Collections = nil
	err := s.update(func(t *txn) error {
		cols, err := t.collections()
		if err != nil {
			return err
		}
		now := s.nowMillis()
		saved.ID = newID("col")
		saved.CreatedAt = now
		saved.UpdatedAt = now

		if saved.ParentID != "" {
			p := findCollection(cols, saved.ParentID)
			if p < 0 {
				return fmt.Errorf("parent collection %s: %w", saved.ParentID, ErrNotFound)
			}
			cols[p].Collections = append(cols[p].Collections, saved.ID)
			cols[p].UpdatedAt = now
		}

		return t.putCollections(append(cols, *saved))
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// LoadCollections returns every collection, nested ones included.
func (s *Store) LoadCollections() ([]model.Collection, error) {
	var cols []model.Collection
	err := s.view(func(t *txn) error {
		var err error
		cols, err = t.collections()
		return err
	})
	return cols, err
}

func (s *Store) GetCollection(id string) (*model.Collection, error) {
	cols, err := s.LoadCollections()
	if err != nil {
		return nil, err
	}
	if i := findCollection(cols, id); i >= 0 {
		return cloneCollection(cols[i]), nil
	}
	return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
}

// FindCollection looks a collection up by id, then exact name, then
// case-insensitive name.
func (s *Store) FindCollection(nameOrID string) (*model.Collection, error) {
	cols, err := s.LoadCollections()
	if err != nil {
		return nil, err
	}
	if i := findCollection(cols, nameOrID); i >= 0 {
		return cloneCollection(cols[i]), nil
	}
	for _, c := range cols {
		if c.Name == nameOrID {
			return cloneCollection(c), nil
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, nameOrID) {
			return cloneCollection(c), nil
		}
	}
	return nil, fmt.Errorf("collection %q: %w", nameOrID, ErrNotFound)
}

func (s *Store) UpdateCollection(id string, u CollectionUpdate) (*model.Collection, error) {
	var updated *model.Collection
	err := s.update(func(t *txn) error {
		cols, err := t.collections()
		if err != nil {
			return err
		}
		i := findCollection(cols, id)
		if i < 0 {
			return fmt.Errorf("collection %s: %w", id, ErrNotFound)
		}

		c := &cols[i]
		if u.Name != nil {
			c.Name = *u.Name
		}
		if u.Description != nil {
			c.Description = *u.Description
		}
		switch {
		case u.ClearAuth:
			c.Auth = nil
		case u.Auth != nil:
			c.Auth = u.Auth.Clone()
		}
		c.UpdatedAt = s.nowMillis()

		updated = cloneCollection(*c)
		return t.putCollections(cols)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCollection removes id and its descendants, every request filed
// under them and every environment linked to them, and unlinks id from its
// parent.
func (s *Store) DeleteCollection(id string) error {
	return s.update(func(t *txn) error {
		cols, err := t.collections()
		if err != nil {
			return err
		}
		i := findCollection(cols, id)
		if i < 0 {
			return fmt.Errorf("collection %s: %w", id, ErrNotFound)
		}

		doomed := subtree(cols, id)
		parentID := cols[i].ParentID

		kept := cols[:0]
		for _, c := range cols {
			if doomed[c.ID] {
				continue
			}
			if c.ID == parentID {
				c.Collections = removeID(c.Collections, id)
				c.UpdatedAt = s.nowMillis()
			}
			kept = append(kept, c)
		}
		if err := t.putCollections(kept); err != nil {
			return err
		}

		reqs, err := t.requests()
		if err != nil {
			return err
		}
		keptReqs := reqs[:0]
		for _, r := range reqs {
			if !doomed[r.CollectionID] {
				keptReqs = append(keptReqs, r)
			}
		}
		if err := t.putRequests(keptReqs); err != nil {
			return err
		}

		_, err = t.deleteEnvironmentsLinkedTo(doomed)
		return err
	})
}

// subtree returns id and every collection below it. Children are found both
// through child-id lists and parent ids; cycles are tolerated.
func subtree(cols []model.Collection, id string) map[string]bool {
	children := make(map[string][]string)
	for _, c := range cols {
		children[c.ID] = append(children[c.ID], c.Collections...)
		if c.ParentID != "" {
			children[c.ParentID] = append(children[c.ParentID], c.ID)
		}
	}

	seen := map[string]bool{}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, children[cur]...)
	}
	return seen
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// CollectionAuth returns the collection's own auth block, nil when it has
// none or collectionID is empty. Ancestors are not consulted.
func (s *Store) CollectionAuth(collectionID string) (*model.RequestAuth, error) {
	if collectionID == "" {
		return nil, nil
	}
	c, err := s.GetCollection(collectionID)
	if err != nil {
		return nil, err
	}
	return c.Auth, nil
}
