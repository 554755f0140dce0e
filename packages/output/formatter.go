package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ababil/packages/capture"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// Exchange is one composed request and, once sent, its response.
type Exchange struct {
	Name       string
	Request    *model.ResolvedRequest
	Response   *http.Response
	Candidates []capture.Candidate
	// Saved lists the token names stored from Candidates.
	Saved []string
	// Unresolved lists placeholders left verbatim in the request.
	Unresolved []string
}

// Formatter renders exchanges.
type Formatter interface {
	FormatExchange(ex *Exchange)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that buffer until the run ends.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// New returns the formatter for format ("console" or "json").
func New(format string, opts ...ConsoleOption) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "console":
		return NewConsoleFormatter(opts...), nil
	case "json":
		c := NewConsoleFormatter(opts...)
		return NewJSONFormatter(JSONWithWriter(c.writer)), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
