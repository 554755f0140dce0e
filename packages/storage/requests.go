package storage

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// RequestUpdate is a partial update. Nil fields are left unchanged; set
// ClearAuth to make the request inherit its collection's auth.
type RequestUpdate struct {
	Name         *string
	Method       *string
	URL          *string
	Body         *string
	Headers      []model.Header
	Auth         *model.RequestAuth
	ClearAuth    bool
	TestScript   *string
	CollectionID *string
}

func (t *txn) requests() ([]model.SavedRequest, error) {
	var reqs []model.SavedRequest
	if _, err := t.get(keyRequests, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (t *txn) putRequests(reqs []model.SavedRequest) error {
	if reqs == nil {
		reqs = []model.SavedRequest{}
	}
	return t.put(keyRequests, reqs)
}

func findRequest(reqs []model.SavedRequest, id string) int {
	for i := range reqs {
		if reqs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRequest(r model.SavedRequest) *model.SavedRequest {
	r.Headers = append([]model.Header(nil), r.Headers...)
	r.Auth = r.Auth.Clone()
	return &r
}

func (t *txn) requireCollection(id string) error {
	if id == "" {
		return nil
	}
	cols, err := t.collections()
	if err != nil {
		return err
	}
	if findCollection(cols, id) < 0 {
		return fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveRequest stores r under a new id. Its collection, if any, must exist.
func (s *Store) SaveRequest(r model.SavedRequest) (*model.SavedRequest, error) {
	saved := cloneRequest(r)
	err := s.update(func(t *txn) error {
		if err := t.requireCollection(saved.CollectionID); err != nil {
			return err
		}
		reqs, err := t.requests()
		if err != nil {
			return err
		}
		now := s.nowMillis()
		saved.ID = newID("req")
		saved.CreatedAt = now
		saved.UpdatedAt = now
		return t.putRequests(append(reqs, *saved))
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) LoadRequests() ([]model.SavedRequest, error) {
	var reqs []model.SavedRequest
	err := s.view(func(t *txn) error {
		var err error
		reqs, err = t.requests()
		return err
	})
	return reqs, err
}

func (s *Store) GetRequest(id string) (*model.SavedRequest, error) {
	reqs, err := s.LoadRequests()
	if err != nil {
		return nil, err
	}
	if i := findRequest(reqs, id); i >= 0 {
		return cloneRequest(reqs[i]), nil
	}
	return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
}

// FindRequest looks a request up by id, then exact name, then
// case-insensitive name.
func (s *Store) FindRequest(nameOrID string) (*model.SavedRequest, error) {
	reqs, err := s.LoadRequests()
	if err != nil {
		return nil, err
	}
	if i := findRequest(reqs, nameOrID); i >= 0 {
		return cloneRequest(reqs[i]), nil
	}
	for _, r := range reqs {
		if r.Name == nameOrID {
			return cloneRequest(r), nil
		}
	}
	for _, r := range reqs {
		if strings.EqualFold(r.Name, nameOrID) {
			return cloneRequest(r), nil
		}
	}
	return nil, fmt.Errorf("request %q: %w", nameOrID, ErrNotFound)
}

func (s *Store) UpdateRequest(id string, u RequestUpdate) (*model.SavedRequest, error) {
	var updated *model.SavedRequest
	err := s.update(func(t *txn) error {
		reqs, err := t.requests()
		if err != nil {
			return err
		}
		i := findRequest(reqs, id)
		if i < 0 {
			return fmt.Errorf("request %s: %w", id, ErrNotFound)
		}

		r := &reqs[i]
		if u.Name != nil {
			r.Name = *u.Name
		}
		if u.Method != nil {
			r.Method = *u.Method
		}
		if u.URL != nil {
			r.URL = *u.URL
		}
		if u.Body != nil {
			r.Body = *u.Body
		}
		if u.Headers != nil {
			r.Headers = append([]model.Header(nil), u.Headers...)
		}
		switch {
		case u.ClearAuth:
			r.Auth = nil
		case u.Auth != nil:
			r.Auth = u.Auth.Clone()
		}
		if u.TestScript != nil {
			r.TestScript = *u.TestScript
		}
		if u.CollectionID != nil {
			if err := t.requireCollection(*u.CollectionID); err != nil {
				return err
			}
			r.CollectionID = *u.CollectionID
		}
		r.UpdatedAt = s.nowMillis()

		updated = cloneRequest(*r)
		return t.putRequests(reqs)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteRequest(id string) error {
	return s.update(func(t *txn) error {
		reqs, err := t.requests()
		if err != nil {
			return err
		}
		i := findRequest(reqs, id)
		if i < 0 {
			return fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return t.putRequests(append(reqs[:i], reqs[i+1:]...))
	})
}

// RequestsByCollection returns the requests filed under collectionID, or
// the unfiled ones when collectionID is empty.
func (s *Store) RequestsByCollection(collectionID string) ([]model.SavedRequest, error) {
	reqs, err := s.LoadRequests()
	if err != nil {
		return nil, err
	}
	var out []model.SavedRequest
	for _, r := range reqs {
		if r.CollectionID == collectionID {
			out = append(out, r)
		}
	}
	return out, nil
}
