package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/abdul-hamid-achik/ababil/packages/model"
	"github.com/abdul-hamid-achik/ababil/packages/storage"
)

// maxSuggestions caps "did you mean" lists.
const maxSuggestions = 3

// suggest returns the closest candidates to pattern, best first.
func suggest(pattern string, candidates []string) []string {
	matches := fuzzy.Find(pattern, candidates)
	var out []string
	for i, m := range matches {
		if i == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// notFound decorates a storage.ErrNotFound with suggestions.
func notFound(err error, pattern string, candidates []string) error {
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if s := suggest(pattern, candidates); len(s) > 0 {
		return fmt.Errorf("%w (did you mean: %s?)", err, strings.Join(s, ", "))
	}
	return err
}

// parseAssignment splits key=value.
func parseAssignment(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", withExitCode(ExitUsageError, fmt.Errorf("expected key=value, got %q", arg))
	}
	return key, value, nil
}

func parseVariables(args []string) ([]model.Variable, error) {
	vars := make([]model.Variable, 0, len(args))
	for _, arg := range args {
		key, value, err := parseAssignment(arg)
		if err != nil {
			return nil, err
		}
		vars = append(vars, model.Variable{Key: key, Value: value})
	}
	return vars, nil
}

func environmentNames(envs []model.Environment) []string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Name
	}
	return names
}

func collectionNames(cols []model.Collection) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func requestNames(reqs []model.SavedRequest) []string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Name
	}
	return names
}

func (s *session) findEnvironment(nameOrID string) (*model.Environment, error) {
	env, err := s.store.FindEnvironment(nameOrID)
	if err == nil {
		return env, nil
	}
	envs, lerr := s.store.LoadEnvironments()
	if lerr != nil {
		return nil, err
	}
	return nil, notFound(err, nameOrID, environmentNames(envs))
}

func (s *session) findCollection(nameOrID string) (*model.Collection, error) {
	col, err := s.store.FindCollection(nameOrID)
	if err == nil {
		return col, nil
	}
	cols, lerr := s.store.LoadCollections()
	if lerr != nil {
		return nil, err
	}
	return nil, notFound(err, nameOrID, collectionNames(cols))
}

func (s *session) findRequest(nameOrID string) (*model.SavedRequest, error) {
	req, err := s.store.FindRequest(nameOrID)
	if err == nil {
		return req, nil
	}
	reqs, lerr := s.store.LoadRequests()
	if lerr != nil {
		return nil, err
	}
	return nil, notFound(err, nameOrID, requestNames(reqs))
}

// currentEnvironment picks the environment requests resolve against: the
// --env flag, then the active environment, then the configured default.
// It returns nil when there is none, which disables substitution.
func (s *session) currentEnvironment() (*model.Environment, error) {
	if envFlag != "" {
		return s.findEnvironment(envFlag)
	}
	active, err := s.store.ActiveEnvironment()
	if err != nil || active != nil {
		return active, err
	}
	if s.cfg.DefaultEnvironment != "" {
		return s.findEnvironment(s.cfg.DefaultEnvironment)
	}
	return nil, nil
}

// buildAuth assembles an auth block from a type and key=value params.
func buildAuth(authType string, params []string) (*model.RequestAuth, error) {
	a := &model.RequestAuth{Type: model.AuthType(strings.ToLower(authType))}
	var vars []model.AuthVariable
	for _, p := range params {
		key, value, err := parseAssignment(p)
		if err != nil {
			return nil, err
		}
		vars = append(vars, model.AuthVariable{Key: key, Value: value, Type: "string"})
	}

	switch a.Type {
	case model.AuthInherit, model.AuthNoAuth:
	case model.AuthBearer:
		a.Bearer = vars
	case model.AuthBasic:
		a.Basic = vars
	case model.AuthAPIKey:
		a.APIKey = vars
	case model.AuthDigest:
		a.Digest = vars
	case model.AuthOAuth1:
		a.OAuth1 = vars
	case model.AuthOAuth2:
		a.OAuth2 = vars
	default:
		return nil, withExitCode(ExitUsageError, fmt.Errorf("unknown auth type %q", authType))
	}
	return a, nil
}
