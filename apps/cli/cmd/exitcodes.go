package cmd

// Exit codes for the ababil CLI
const (
	// ExitSuccess indicates every request got a 2xx/3xx response
	ExitSuccess = 0

	// ExitRequestFailure indicates at least one response had status >= 400
	ExitRequestFailure = 1

	// ExitParseError indicates a request file or response document was invalid
	ExitParseError = 2

	// ExitConfigError indicates a configuration or storage error
	ExitConfigError = 3

	// ExitNetworkError indicates a request never got a response (status 0)
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}
