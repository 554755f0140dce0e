// Package curl turns curl command lines into request files.
package curl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// ErrNoURL is returned when a command carries nothing that looks like a URL.
var ErrNoURL = errors.New("no URL found in curl command")

// Converter converts curl commands to request files.
type Converter struct {
	liftAuth bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithAuthLifting controls whether -u and "Authorization: Bearer" headers
// become an auth block instead of staying literal. Enabled by default.
func WithAuthLifting(lift bool) Option {
	return func(c *Converter) {
		c.liftAuth = lift
	}
}

func NewConverter(opts ...Option) *Converter {
	c := &Converter{liftAuth: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command is a parsed curl invocation.
type Command struct {
	Method          string
	URL             string
	Headers         []model.Header
	Body            string
	User            string
	Insecure        bool
	FollowRedirects bool
}

// Convert parses one command and returns it as a request file.
func (c *Converter) Convert(command string) (*model.RequestFile, error) {
	cmd, err := Parse(command)
	if err != nil {
		return nil, err
	}
	return c.RequestFile(cmd), nil
}

// ConvertFile converts every command in path. Blank lines and lines starting
// with # are skipped; a trailing backslash continues a command.
func (c *Converter) ConvertFile(path string) ([]*model.RequestFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return c.ConvertReader(f)
}

func (c *Converter) ConvertReader(r io.Reader) ([]*model.RequestFile, error) {
	commands, err := splitCommands(r)
	if err != nil {
		return nil, err
	}

	out := make([]*model.RequestFile, 0, len(commands))
	for i, command := range commands {
		rf, err := c.Convert(command)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		out = append(out, rf)
	}
	return out, nil
}

func splitCommands(r io.Reader) ([]string, error) {
	var commands []string
	var current strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "\\") {
			current.WriteString(strings.TrimSuffix(line, "\\"))
			current.WriteString(" ")
			continue
		}
		current.WriteString(line)
		commands = append(commands, current.String())
		current.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if current.Len() > 0 {
		commands = append(commands, current.String())
	}
	return commands, nil
}

// Parse reads a single curl command line.
func Parse(command string) (*Command, error) {
	cmd := &Command{Method: "GET"}
	explicitMethod := false

	args := tokenize(strings.TrimSpace(command))
	if len(args) > 0 && args[0] == "curl" {
		args = args[1:]
	}

	next := func(i int, flag string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("missing value for %s", flag)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-X", "--request":
			v, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			cmd.Method = strings.ToUpper(v)
			explicitMethod = true
			i++
		case "-H", "--header":
			v, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			if key, value, ok := strings.Cut(v, ":"); ok {
				cmd.Headers = append(cmd.Headers, model.Header{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
			}
			i++
		case "-d", "--data", "--data-raw", "--data-binary":
			v, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			cmd.Body = v
			if !explicitMethod {
				cmd.Method = "POST"
			}
			i++
		case "-u", "--user":
			v, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			cmd.User = v
			i++
		case "-A", "--user-agent", "-e", "--referer", "-b", "--cookie":
			v, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			cmd.Headers = append(cmd.Headers, model.Header{Key: headerForFlag[arg], Value: v})
			i++
		case "-k", "--insecure":
			cmd.Insecure = true
		case "-L", "--location":
			cmd.FollowRedirects = true
		default:
			if strings.HasPrefix(arg, "-") {
				// unknown flag; swallow its value if it has one
				if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !isURL(args[i+1]) {
					i++
				}
				continue
			}
			if cmd.URL == "" && isURL(arg) {
				cmd.URL = arg
			}
		}
	}

	if cmd.URL == "" {
		return nil, ErrNoURL
	}
	return cmd, nil
}

var headerForFlag = map[string]string{
	"-A": "User-Agent", "--user-agent": "User-Agent",
	"-e": "Referer", "--referer": "Referer",
	"-b": "Cookie", "--cookie": "Cookie",
}

// RequestFile maps a parsed command onto a request file.
func (c *Converter) RequestFile(cmd *Command) *model.RequestFile {
	rf := &model.RequestFile{
		Name: GenerateName(cmd.URL, cmd.Method),
		DraftRequest: model.DraftRequest{
			Method: cmd.Method,
			URL:    cmd.URL,
			Body:   cmd.Body,
		},
	}

	for _, h := range cmd.Headers {
		if c.liftAuth && rf.Auth == nil && strings.EqualFold(h.Key, "Authorization") {
			if token, ok := cutPrefixFold(h.Value, "Bearer "); ok {
				rf.Auth = &model.RequestAuth{
					Type:   model.AuthBearer,
					Bearer: []model.AuthVariable{{Key: "token", Value: strings.TrimSpace(token)}},
				}
				continue
			}
		}
		rf.Headers = append(rf.Headers, h)
	}

	if cmd.User != "" {
		user, pass, _ := strings.Cut(cmd.User, ":")
		if c.liftAuth && rf.Auth == nil {
			rf.Auth = &model.RequestAuth{
				Type: model.AuthBasic,
				Basic: []model.AuthVariable{
					{Key: "username", Value: user},
					{Key: "password", Value: pass},
				},
			}
		}
	}
	return rf
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// tokenize splits a shell-like command line, honoring single and double
// quotes and backslash escapes.
func tokenize(line string) []string {
	var out []string
	var cur strings.Builder
	var quote rune
	escaped := false
	inToken := false

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inToken = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				out = append(out, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		out = append(out, cur.String())
	}
	return out
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var (
	urlPathPattern = regexp.MustCompile(`^(?:https?://[^/]+|\{\{[^}]+\}\})(/[^?#]*)?`)
	nonIdentChars  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// GenerateName derives a request name such as "get_users_123" from a method
// and URL.
func GenerateName(rawURL, method string) string {
	path := ""
	if m := urlPathPattern.FindStringSubmatch(rawURL); len(m) > 1 {
		path = m[1]
	}
	path = strings.Trim(nonIdentChars.ReplaceAllString(path, "_"), "_")
	if path == "" {
		path = "root"
	}
	return strings.ToLower(method) + "_" + strings.ToLower(path)
}
