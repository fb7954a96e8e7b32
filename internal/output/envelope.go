package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"gopkg.in/yaml.v3"
)

// Response is the success envelope.
type Response struct {
	OK          bool           `json:"ok"`
	Data        any            `json:"data,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Breadcrumbs []Breadcrumb   `json:"breadcrumbs,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Breadcrumb is a suggested follow-up command.
type Breadcrumb struct {
	Action      string `json:"action"`
	Cmd         string `json:"cmd"`
	Description string `json:"description"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Hint      string `json:"hint,omitempty"`
	HTTP      int    `json:"http_status,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Format selects how envelopes are written.
type Format int

const (
	FormatAuto     Format = iota // styled on a terminal, JSON otherwise
	FormatJSON                   // indented envelope
	FormatMarkdown               // literal Markdown, safe to pipe
	FormatStyled                 // ANSI output even when piped
	FormatQuiet                  // data only, no envelope
	FormatIDs                    // one id per line
	FormatCount                  // number of records
	FormatYAML
)

// Options controls output behavior.
type Options struct {
	Format  Format
	Writer  io.Writer
	Verbose bool

	// JQ, when set, filters the JSON envelope through a jq expression.
	JQ string
}

// Writer renders envelopes in the configured format.
type Writer struct {
	opts Options
}

// New creates a writer. A nil Writer means stdout.
func New(opts Options) *Writer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &Writer{opts: opts}
}

// OK writes a success envelope around data.
func (w *Writer) OK(data any, opts ...ResponseOption) error {
	resp := &Response{OK: true, Data: data}
	for _, opt := range opts {
		opt(resp)
	}
	return w.write(resp)
}

// Err writes an error envelope.
func (w *Writer) Err(err error) error {
	e := AsError(err)
	return w.write(&ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Hint:      e.Hint,
		HTTP:      e.HTTPStatus,
		Retryable: e.Retryable,
	})
}

func (w *Writer) write(v any) error {
	if w.opts.JQ != "" {
		return w.writeJQ(v)
	}

	format := w.opts.Format
	if format == FormatAuto {
		format = FormatJSON
		if isTTY(w.opts.Writer) {
			format = FormatStyled
		}
	}

	resp, isResp := v.(*Response)
	switch {
	case format == FormatQuiet && isResp:
		return w.writeJSON(resp.Data)
	case format == FormatIDs && isResp:
		return w.writeIDs(resp.Data)
	case format == FormatCount && isResp:
		fmt.Fprintln(w.opts.Writer, len(records(resp.Data)))
		return nil
	case format == FormatMarkdown:
		return w.render(NewMarkdownRenderer(w.opts.Writer), v)
	case format == FormatStyled:
		return w.render(NewRenderer(w.opts.Writer, true), v)
	case format == FormatYAML:
		return w.writeYAML(v)
	}
	return w.writeJSON(v)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML round-trips through JSON so keys follow the json tags.
func (w *Writer) writeYAML(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w.opts.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (w *Writer) writeIDs(data any) error {
	for _, rec := range records(data) {
		if id, ok := rec["id"]; ok {
			fmt.Fprintln(w.opts.Writer, id)
		}
	}
	return nil
}

type renderer interface {
	RenderResponse(io.Writer, *Response) error
	RenderError(io.Writer, *ErrorResponse) error
}

func (w *Writer) render(r renderer, v any) error {
	switch resp := v.(type) {
	case *Response:
		return r.RenderResponse(w.opts.Writer, resp)
	case *ErrorResponse:
		return r.RenderError(w.opts.Writer, resp)
	}
	return w.writeJSON(v)
}

// records returns the objects held by data. Raw API responses shaped
// {"projects": [...], "pagination": {...}} yield the wrapped list; a single
// object counts as one record.
func records(data any) []map[string]any {
	switch d := NormalizeData(data).(type) {
	case []map[string]any:
		return d
	case map[string]any:
		if list, ok := wrappedList(d); ok {
			return list
		}
		return []map[string]any{d}
	case []any:
		out := make([]map[string]any, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func wrappedList(m map[string]any) ([]map[string]any, bool) {
	var list []any
	found := false
	for key, v := range m {
		if key == "pagination" {
			continue
		}
		items, ok := v.([]any)
		if !ok || found {
			return nil, false
		}
		list, found = items, true
	}
	if !found {
		return nil, false
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out, true
}

// NormalizeData converts typed values and json.RawMessage into generic
// JSON values. Lists whose elements are all objects become
// []map[string]any.
func NormalizeData(data any) any {
	var generic any
	switch d := data.(type) {
	case nil, []map[string]any, map[string]any:
		return data
	case json.RawMessage:
		if err := json.Unmarshal(d, &generic); err != nil {
			return data
		}
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return data
		}
		if err := json.Unmarshal(b, &generic); err != nil {
			return data
		}
	}

	list, ok := generic.([]any)
	if !ok {
		return generic
	}
	maps := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return list
		}
		maps = append(maps, m)
	}
	return maps
}

// ResponseOption modifies a Response.
type ResponseOption func(*Response)

// WithSummary sets the one-line summary.
func WithSummary(s string) ResponseOption {
	return func(r *Response) { r.Summary = s }
}

// WithBreadcrumbs appends follow-up suggestions.
func WithBreadcrumbs(b ...Breadcrumb) ResponseOption {
	return func(r *Response) { r.Breadcrumbs = append(r.Breadcrumbs, b...) }
}

// WithContext records the resolved inputs of the call, such as the
// organization or time range used.
func WithContext(key string, value any) ResponseOption {
	return func(r *Response) {
		if r.Context == nil {
			r.Context = make(map[string]any)
		}
		r.Context[key] = value
	}
}

// WithMeta adds metadata such as session stats.
func WithMeta(key string, value any) ResponseOption {
	return func(r *Response) {
		if r.Meta == nil {
			r.Meta = make(map[string]any)
		}
		r.Meta[key] = value
	}
}
