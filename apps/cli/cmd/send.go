package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/auth"
	"github.com/abdul-hamid-achik/ababil/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/ababil/packages/capture"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/output"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	tokenFlags      []string
	saveTokensFlag  bool
	watchFlag       bool
	rateLimitFlag   float64
	timeoutFlag     string
	insecureFlag    bool
	proxyFlag       string
	showSecretsFlag bool
)

var sendCmd = &cobra.Command{
	Use:   "send <file|directory|saved-request>...",
	Short: "Compose and send requests",
	Long: `Compose each request against the current environment and send it.

Requests run in order and share one token pool: tokens found in a response
(with --save-tokens) and tokens given with --token are available to every
later request as {{name}}, and may be injected as a bearer token when no
auth is configured anywhere.

Examples:
  ababil send login.json me.json --save-tokens
  ababil send "List users" --env staging
  ababil send ./requests/ --token api_token=abc123 -o json
  ababil send me.json --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(sendCommand),
}

func init() {
	f := sendCmd.Flags()
	f.StringArrayVar(&tokenFlags, "token", nil, "Seed the token pool with name=value (repeatable)")
	f.BoolVar(&saveTokensFlag, "save-tokens", getEnvBool("ABABIL_SAVE_TOKENS", false), "Save tokens found in responses for later requests (env: ABABIL_SAVE_TOKENS)")
	f.BoolVarP(&watchFlag, "watch", "w", false, "Watch request files and re-send on change")
	f.Float64Var(&rateLimitFlag, "rate", getEnvFloat("ABABIL_RATE", 0), "Maximum requests per second, 0 for unlimited (env: ABABIL_RATE)")
	f.StringVar(&timeoutFlag, "timeout", getEnvString("ABABIL_TIMEOUT", ""), "Request timeout, e.g. 30s (env: ABABIL_TIMEOUT)")
	f.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("ABABIL_INSECURE", false), "Disable SSL certificate validation (env: ABABIL_INSECURE)")
	f.StringVar(&proxyFlag, "proxy", getEnvString("ABABIL_PROXY", ""), "Proxy URL for HTTP requests (env: ABABIL_PROXY)")
	f.BoolVar(&showSecretsFlag, "show-secrets", false, "Print tokens and Authorization values unmasked")
}

// newClient builds the transport from config with the send flags on top.
func (s *session) newClient(cmd *cobra.Command) (*http.Client, error) {
	timeout := s.cfg.TimeoutDuration()
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
		}
		timeout = d
	}
	proxy := s.cfg.Proxy
	if proxyFlag != "" {
		proxy = proxyFlag
	}
	rate := s.cfg.RateLimit
	if cmd.Flags().Changed("rate") || rateLimitFlag > 0 {
		rate = rateLimitFlag
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return http.NewClient(
		http.WithTimeout(timeout),
		http.WithFollowRedirects(s.cfg.GetFollowRedirects()),
		http.WithMaxRedirects(s.cfg.MaxRedirects),
		http.WithValidateSSL(s.cfg.GetValidateSSL() && !insecureFlag),
		http.WithProxy(proxy),
		http.WithDefaultHeaders(s.cfg.Headers),
		http.WithRateLimit(rate),
		http.WithTokenCache(oauth2.NewTokenCache()),
		http.WithBaseDir(cwd),
	), nil
}

func (s *session) newFormatter(cmd *cobra.Command) (output.Formatter, error) {
	f, err := output.New(outputFlag,
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(s.cfg.GetVerbose()),
		output.WithNoColor(s.cfg.GetNoColor()),
		output.WithShowSecrets(showSecretsFlag),
	)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	return f, nil
}

// warnings go to stderr so JSON output stays parseable.
func (s *session) warnConsole(cmd *cobra.Command) *output.ConsoleFormatter {
	return output.NewConsoleFormatter(
		output.WithWriter(cmd.ErrOrStderr()),
		output.WithVerbose(s.cfg.GetVerbose()),
		output.WithNoColor(s.cfg.GetNoColor()),
	)
}

func sendCommand(cmd *cobra.Command, args []string, s *session) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := s.newClient(cmd)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenStore()
	for _, tf := range tokenFlags {
		name, value, err := parseAssignment(tf)
		if err != nil {
			return err
		}
		tokens.Set(name, value)
	}
	saveTokens := saveTokensFlag || s.cfg.GetAutoSaveTokens()

	run := func() error {
		formatter, err := s.newFormatter(cmd)
		if err != nil {
			return err
		}
		formatter.FormatHeader(version)
		start := time.Now()
		code, err := s.sendAll(ctx, cmd, args, client, tokens, formatter, saveTokens)
		if err != nil {
			formatter.FormatError(err)
		}
		if cf, ok := formatter.(*output.ConsoleFormatter); ok && s.cfg.GetVerbose() {
			cf.FormatTokens(tokens.Snapshot())
		}
		if flushable, ok := formatter.(output.Flushable); ok {
			if ferr := flushable.Flush(time.Since(start)); ferr != nil {
				return fmt.Errorf("error writing output: %w", ferr)
			}
		}
		if err != nil {
			return err
		}
		if code != ExitSuccess {
			return withExitCode(code, fmt.Errorf("one or more requests failed"))
		}
		return nil
	}

	if !watchFlag {
		return run()
	}
	if err := run(); err != nil {
		s.console.FormatError(err)
	}
	return s.watch(ctx, cmd, args, run)
}

// sendAll sends every target in order and returns the exit code for the
// worst outcome.
func (s *session) sendAll(ctx context.Context, cmd *cobra.Command, args []string, client *http.Client, tokens *auth.TokenStore, formatter output.Formatter, saveTokens bool) (int, error) {
	targets, err := s.loadTargets(args)
	if err != nil {
		return ExitSuccess, err
	}
	environment, err := s.currentEnvironment()
	if err != nil {
		return ExitSuccess, withExitCode(ExitConfigError, err)
	}
	warn := s.warnConsole(cmd).Warn

	code := ExitSuccess
	for _, t := range targets {
		if ctx.Err() != nil {
			return code, ctx.Err()
		}
		resolved, missing, err := s.compose(t, environment, tokens.Snapshot(), warn)
		if err != nil {
			return code, err
		}

		resp := client.Send(ctx, resolved)
		ex := &output.Exchange{
			Name:       t.name,
			Request:    resolved,
			Response:   resp,
			Candidates: capture.ExtractResponse(resp),
			Unresolved: missing,
		}
		if saveTokens && len(ex.Candidates) > 0 {
			capture.SaveAll(tokens, ex.Candidates)
			for _, c := range ex.Candidates {
				ex.Saved = append(ex.Saved, c.SuggestedTokenName)
			}
		}
		formatter.FormatExchange(ex)

		switch {
		case resp.IsTransportFailure():
			code = ExitNetworkError
		case resp.IsError() && code == ExitSuccess:
			code = ExitRequestFailure
		}
	}
	return code, nil
}

// watch re-runs fn whenever a watched request file is written. Saved
// requests are not watched.
func (s *session) watch(ctx context.Context, cmd *cobra.Command, args []string, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			s.console.FormatError(fmt.Errorf("failed to watch %s: %w", dir, err))
			return
		}
		watchedDirs[dir] = true
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			addDir(filepath.Dir(arg))
			continue
		}
		_ = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				addDir(path)
			}
			return nil
		})
	}
	if len(watchedDirs) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("--watch needs at least one request file or directory"))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || !isRequestFile(event.Name) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-sending...\n", name)
				if err := fn(); err != nil {
					s.console.FormatError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.console.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}
