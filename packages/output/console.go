package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/abdul-hamid-achik/ababil/packages/auth"
	"github.com/abdul-hamid-achik/ababil/packages/capture"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen]) + "..."
	}
	return s
}

// mask hides all but the first four characters of a secret.
func mask(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-4)
}

type ConsoleFormatter struct {
	writer      io.Writer
	verbose     bool
	noColor     bool
	showSecrets bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints request and response headers and warnings.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithShowSecrets prints token values unmasked.
func WithShowSecrets(show bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.showSecrets = show
	}
}

func (f *ConsoleFormatter) secret(s string) string {
	if f.showSecrets {
		return s
	}
	return mask(s)
}

func statusColor(code int) *color.Color {
	switch {
	case code == 0 || code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow, color.Bold)
	case code >= 300:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

// FormatExchange prints the request line, the response status and body, and
// any token candidates.
func (f *ConsoleFormatter) FormatExchange(ex *Exchange) {
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if ex.Name != "" {
		fmt.Fprintf(f.writer, "\n%s\n", bold(ex.Name))
	}
	if ex.Request != nil {
		f.FormatRequest(ex.Request)
	}
	for _, name := range ex.Unresolved {
		fmt.Fprintf(f.writer, "  %s unresolved variable {{%s}}\n", yellow("!"), name)
	}
	if ex.Response != nil {
		f.FormatResponse(ex.Response)
	}
	if len(ex.Candidates) > 0 {
		f.FormatCandidates(ex.Candidates, ex.Saved)
	}
}

// FormatRequest prints the resolved request line, and headers and body when
// verbose.
func (f *ConsoleFormatter) FormatRequest(req *model.ResolvedRequest) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", cyan(req.Method), req.URL)
	if !f.verbose {
		return
	}
	for _, h := range req.Header {
		value := h.Value
		if strings.EqualFold(h.Key, auth.HeaderAuthorization) {
			value = f.secret(value)
		}
		fmt.Fprintf(f.writer, "%s %s: %s\n", faint(">"), h.Key, value)
	}
	if req.Body != "" {
		fmt.Fprintf(f.writer, "\n%s\n", formatBody(req.Body))
	}
}

// FormatResponse prints the status line, timing and body.
func (f *ConsoleFormatter) FormatResponse(resp *http.Response) {
	faint := color.New(color.Faint).SprintFunc()
	status := statusColor(resp.StatusCode).SprintFunc()

	if resp.IsTransportFailure() {
		fmt.Fprintf(f.writer, "%s %s\n", status("✗"), resp.Body)
		return
	}

	fmt.Fprintf(f.writer, "%s %s\n",
		status(fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusText())),
		faint(fmt.Sprintf("(%dms, %d bytes)", resp.DurationMs, len(resp.Body))))
	if f.verbose {
		for _, h := range resp.Headers {
			fmt.Fprintf(f.writer, "%s %s: %s\n", faint("<"), h[0], h[1])
		}
	}
	if resp.Body != "" {
		fmt.Fprintf(f.writer, "\n%s\n", formatBody(resp.Body))
	}
}

// formatBody pretty-prints JSON bodies and leaves anything else alone.
func formatBody(body string) string {
	if !gjson.Valid(body) {
		return body
	}
	out := pretty.Pretty([]byte(body))
	if !color.NoColor {
		out = pretty.Color(out, nil)
	}
	return strings.TrimRight(string(out), "\n")
}

// FormatCandidates lists extracted token candidates, marking the saved ones.
func (f *ConsoleFormatter) FormatCandidates(candidates []capture.Candidate, saved []string) {
	green := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	isSaved := make(map[string]bool, len(saved))
	for _, name := range saved {
		isSaved[name] = true
	}

	fmt.Fprintf(f.writer, "\nTokens found:\n")
	for _, c := range candidates {
		marker := " "
		if isSaved[c.SuggestedTokenName] {
			marker = green("✓")
		}
		fmt.Fprintf(f.writer, "  %s %s = %s %s\n", marker, c.SuggestedTokenName, truncate(f.secret(c.Value), 60), faint("("+c.Path+")"))
	}
}

// FormatTokens lists the token pool.
func (f *ConsoleFormatter) FormatTokens(tokens []model.AuthToken) {
	faint := color.New(color.Faint).SprintFunc()
	if len(tokens) == 0 {
		fmt.Fprintln(f.writer, "No tokens.")
		return
	}
	for _, t := range tokens {
		fmt.Fprintf(f.writer, "%s = %s %s\n", t.Name, truncate(f.secret(t.Value), 60), faint("("+string(t.Source)+")"))
	}
}

// FormatEnvironments lists environments, marking the active one.
func (f *ConsoleFormatter) FormatEnvironments(envs []model.Environment) {
	green := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if len(envs) == 0 {
		fmt.Fprintln(f.writer, "No environments.")
		return
	}
	for _, e := range envs {
		marker := " "
		if e.IsActive {
			marker = green("*")
		}
		fmt.Fprintf(f.writer, "%s %s %s\n", marker, e.Name, faint(fmt.Sprintf("(%s, %d variables)", e.ID, len(e.Variables))))
	}
}

// FormatEnvironment prints one environment's variables.
func (f *ConsoleFormatter) FormatEnvironment(env *model.Environment) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	title := env.Name
	if env.IsActive {
		title += " (active)"
	}
	fmt.Fprintf(f.writer, "%s\n", bold(title))
	for _, v := range env.Variables {
		line := fmt.Sprintf("  %s = %s", v.Key, v.Value)
		if v.Disabled {
			line = faint(line + " (disabled)")
		}
		fmt.Fprintln(f.writer, line)
	}
}

// FormatCollections prints the collection tree with request counts.
func (f *ConsoleFormatter) FormatCollections(cols []model.Collection, requestCounts map[string]int) {
	if len(cols) == 0 {
		fmt.Fprintln(f.writer, "No collections.")
		return
	}

	byID := make(map[string]model.Collection, len(cols))
	var roots []string
	for _, c := range cols {
		byID[c.ID] = c
	}
	for _, c := range cols {
		if _, ok := byID[c.ParentID]; c.ParentID == "" || !ok {
			roots = append(roots, c.ID)
		}
	}

	seen := make(map[string]bool)
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		c, ok := byID[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		f.formatCollectionLine(c, depth, requestCounts[id])
		for _, child := range c.Collections {
			walk(child, depth+1)
		}
	}
	for _, id := range roots {
		walk(id, 0)
	}
}

func (f *ConsoleFormatter) formatCollectionLine(c model.Collection, depth, requests int) {
	faint := color.New(color.Faint).SprintFunc()
	authLabel := "inherit"
	if c.Auth != nil && !c.Auth.IsInherit() {
		authLabel = string(c.Auth.Type)
	}
	fmt.Fprintf(f.writer, "%s%s %s\n", strings.Repeat("  ", depth), c.Name,
		faint(fmt.Sprintf("(%s, %d requests, auth: %s)", c.ID, requests, authLabel)))
}

// FormatRequests lists saved requests.
func (f *ConsoleFormatter) FormatRequests(reqs []model.SavedRequest) {
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	if len(reqs) == 0 {
		fmt.Fprintln(f.writer, "No requests.")
		return
	}
	sorted := append([]model.SavedRequest(nil), reqs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, r := range sorted {
		fmt.Fprintf(f.writer, "%-7s %s %s %s\n", cyan(r.Method), r.Name, r.URL, faint("("+r.ID+")"))
	}
}

// Warn prints a warning. It has the shape of a WarnFunc and only prints when
// verbose.
func (f *ConsoleFormatter) Warn(format string, args ...any) {
	if !f.verbose {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", yellow("warning:"), fmt.Sprintf(format, args...))
}

// Success prints a confirmation line.
func (f *ConsoleFormatter) Success(format string, args ...any) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("ababil"), version)
}
