package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/core/composer"
	"github.com/abdul-hamid-achik/ababil/packages/core/config"
	"github.com/abdul-hamid-achik/ababil/packages/core/env"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// target is one request to compose: either a request file or a saved
// request.
type target struct {
	name         string
	path         string // empty for saved requests
	draft        *model.DraftRequest
	collectionID string
}

// loadTargets maps each argument to request files (a file, or every request
// file under a directory) or, when no such path exists, a saved request.
func (s *session) loadTargets(args []string) ([]target, error) {
	var targets []target
	for _, arg := range args {
		info, err := os.Stat(arg)
		if errors.Is(err, os.ErrNotExist) {
			r, ferr := s.findRequest(arg)
			if ferr != nil {
				return nil, ferr
			}
			targets = append(targets, target{name: r.Name, draft: r.Draft(), collectionID: r.CollectionID})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		files := []string{arg}
		if info.IsDir() {
			if files, err = collectFiles(arg); err != nil {
				return nil, err
			}
		}
		for _, path := range files {
			t, err := s.fileTarget(path)
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
	}
	return targets, nil
}

func (s *session) fileTarget(path string) (target, error) {
	rf, err := model.LoadRequestFile(path)
	if err != nil {
		return target{}, withExitCode(ExitParseError, fmt.Errorf("%s: %w", path, err))
	}
	name := rf.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	draft := rf.DraftRequest
	return target{name: name, path: path, draft: &draft, collectionID: rf.CollectionID}, nil
}

// collectFiles walks dir for request files in lexical order.
func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isRequestFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func isRequestFile(path string) bool {
	return filepath.Ext(path) == ".json" && !slices.Contains(config.ConfigFilenames, filepath.Base(path))
}

// compose resolves t against environment and tokens, using the auth of the
// collection t is filed under. It also returns the placeholders left
// unresolved.
func (s *session) compose(t target, environment *model.Environment, tokens []model.AuthToken, warn env.WarnFunc) (*model.ResolvedRequest, []string, error) {
	collectionAuth, err := s.store.CollectionAuth(t.collectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", t.name, err)
	}

	resolved, err := composer.New(composer.WithWarnFunc(warn)).Compose(t.draft, environment, tokens, collectionAuth)
	if err != nil {
		return nil, nil, withExitCode(ExitParseError, fmt.Errorf("%s: %w", t.name, err))
	}
	return resolved, unresolved(resolved, environment, tokens), nil
}

func unresolved(r *model.ResolvedRequest, environment *model.Environment, tokens []model.AuthToken) []string {
	parts := []string{r.URL, r.Body}
	for _, h := range r.Header {
		parts = append(parts, h.Key, h.Value)
	}
	return env.NewResolver(environment, tokens).Unresolved(strings.Join(parts, "\n"))
}
