package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/ababil/packages/capture"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary   JSONSummary    `json:"summary"`
	Exchanges []JSONExchange `json:"exchanges"`
	Errors    []string       `json:"errors,omitempty"`
	Duration  float64        `json:"duration"`
	Time      string         `json:"time"`
}

// JSONSummary counts exchanges by outcome.
type JSONSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Tokens    int `json:"tokens"`
}

// JSONExchange is one request/response pair. Request and Response use the
// transport's wire documents.
type JSONExchange struct {
	Name       string              `json:"name,omitempty"`
	Request    *http.Request       `json:"request,omitempty"`
	Response   *http.Response      `json:"response,omitempty"`
	Candidates []capture.Candidate `json:"candidates,omitempty"`
	Saved      []string            `json:"saved,omitempty"`
	Unresolved []string            `json:"unresolved,omitempty"`
}

// JSONFormatter formats exchanges as a single JSON document on Flush.
type JSONFormatter struct {
	writer    io.Writer
	exchanges []JSONExchange
	errors    []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:    os.Stdout,
		exchanges: make([]JSONExchange, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatExchange(ex *Exchange) {
	out := JSONExchange{
		Name:       ex.Name,
		Response:   ex.Response,
		Candidates: ex.Candidates,
		Saved:      ex.Saved,
		Unresolved: ex.Unresolved,
	}
	if ex.Request != nil {
		out.Request = http.NewRequest(ex.Request)
	}
	f.exchanges = append(f.exchanges, out)
}

// FormatRequest records a composed request that is not sent.
func (f *JSONFormatter) FormatRequest(req *model.ResolvedRequest) {
	f.FormatExchange(&Exchange{Request: req})
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, ex := range f.exchanges {
		if ex.Response == nil {
			continue
		}
		summary.Total++
		if ex.Response.IsSuccess() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Tokens += len(ex.Saved)
	}

	output := JSONOutput{
		Summary:   summary,
		Exchanges: f.exchanges,
		Errors:    f.errors,
		Duration:  float64(totalDuration.Milliseconds()),
		Time:      time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
