package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"

	"github.com/hubstaff-go/hubstaff/internal/observability"
)

// Palette holds the colors used for styled output.
type Palette struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color
}

// DefaultPalette is tuned for dark terminals.
var DefaultPalette = Palette{
	Primary: lipgloss.Color("#6C5CE7"),
	Muted:   lipgloss.Color("#8A8F98"),
	Text:    lipgloss.Color("#E6E6E6"),
	Error:   lipgloss.Color("#FF5F5F"),
	Warning: lipgloss.Color("#F5A623"),
	Success: lipgloss.Color("#2ECC71"),
}

// Renderer handles styled terminal output.
type Renderer struct {
	width  int
	styled bool
	now    func() time.Time

	Summary lipgloss.Style
	Muted   lipgloss.Style
	Data    lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style

	Header    lipgloss.Style
	Cell      lipgloss.Style
	CellMuted lipgloss.Style
}

// NewRenderer creates a renderer using DefaultPalette. Styling is enabled
// when writing to a TTY or when forceStyled is true, and disabled whenever
// NO_COLOR is set.
func NewRenderer(w io.Writer, forceStyled bool) *Renderer {
	return NewRendererWithPalette(w, forceStyled, DefaultPalette)
}

// NewRendererWithPalette creates a renderer with specific colors.
func NewRendererWithPalette(w io.Writer, forceStyled bool, p Palette) *Renderer {
	width, isTTY := terminalInfo(w)
	styled := (isTTY || forceStyled) && os.Getenv("NO_COLOR") == ""

	// lipgloss.NewRenderer does not carry the profile through table
	// rendering, so set the global one.
	if styled {
		lipgloss.SetColorProfile(2) // TrueColor
	} else {
		lipgloss.SetColorProfile(0) // Ascii
	}

	r := &Renderer{width: width, styled: styled, now: time.Now}
	plain := lipgloss.NewStyle()
	if !styled {
		r.Summary, r.Muted, r.Data, r.Error, r.Hint = plain, plain, plain, plain, plain
		r.Warning, r.Success, r.Header, r.Cell, r.CellMuted = plain, plain, plain, plain, plain
		return r
	}

	r.Summary = plain.Foreground(p.Primary).Bold(true)
	r.Muted = plain.Foreground(p.Muted)
	r.Data = plain.Foreground(p.Text)
	r.Error = plain.Foreground(p.Error).Bold(true)
	r.Hint = plain.Foreground(p.Muted).Italic(true)
	r.Warning = plain.Foreground(p.Warning)
	r.Success = plain.Foreground(p.Success)
	r.Header = plain.Foreground(p.Text).Bold(true)
	r.Cell = plain.Foreground(p.Text)
	r.CellMuted = plain.Foreground(p.Muted)
	return r
}

// terminalInfo returns the terminal width and whether the writer is a TTY.
func terminalInfo(w io.Writer) (width int, isTTY bool) {
	width = 80
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(f.Fd()); err == nil && cols >= 40 {
			width = cols
		}
		isTTY = term.IsTerminal(f.Fd())
	}
	return width, isTTY
}

// RenderResponse renders a success response to the writer.
func (r *Renderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString(r.Summary.Render(resp.Summary))
		b.WriteString("\n\n")
	}

	r.renderData(&b, NormalizeData(resp.Data))

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n")
		r.renderBreadcrumbs(&b, resp.Breadcrumbs)
	}

	if stats := extractStats(resp.Meta); stats != nil {
		b.WriteString("\n")
		if line := statsLine(stats); line != "" {
			b.WriteString(r.Muted.Render(line) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response to the writer.
func (r *Renderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder

	b.WriteString(r.Error.Render("Error: " + resp.Error))
	b.WriteString("\n")
	if resp.Hint != "" {
		b.WriteString(r.Hint.Render("Hint: " + resp.Hint))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)") + "\n")
			return
		}
		r.renderTable(b, d)
	case map[string]any:
		r.renderObject(b, d)
	case []any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)") + "\n")
			return
		}
		for _, item := range d {
			b.WriteString(r.Data.Render("• "+formatCell(item)) + "\n")
		}
	case nil:
		b.WriteString(r.Muted.Render("(no data)") + "\n")
	case string:
		b.WriteString(r.Data.Render(d) + "\n")
	default:
		b.WriteString(r.Data.Render(fmt.Sprintf("%v", data)) + "\n")
	}
}

func (r *Renderer) renderTable(b *strings.Builder, data []map[string]any) {
	columns := fitColumns(detectColumns(data), data, r.width)
	if len(columns) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Header
			}
			if col < len(columns) && columns[col].muted {
				return r.CellMuted
			}
			return r.Cell
		})

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.header
	}
	t.Headers(headers...)

	for _, item := range data {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = formatValue(col.key, item[col.key], r.now())
		}
		t.Row(row...)
	}

	b.WriteString(t.String())
	b.WriteString("\n")
}

func (r *Renderer) renderObject(b *strings.Builder, data map[string]any) {
	fields := objectFields(data)
	if len(fields) == 0 {
		b.WriteString(r.Muted.Render("(no data)") + "\n")
		return
	}

	maxLen := 0
	for _, f := range fields {
		maxLen = max(maxLen, len(formatHeader(f)))
	}
	for _, f := range fields {
		label := r.Muted.Render(fmt.Sprintf("%-*s: ", maxLen, formatHeader(f)))
		style := r.Data
		if mutedColumns[f] {
			style = r.CellMuted
		}
		b.WriteString(label + style.Render(formatValue(f, data[f], r.now())) + "\n")
	}
}

func (r *Renderer) renderBreadcrumbs(b *strings.Builder, crumbs []Breadcrumb) {
	b.WriteString(r.Muted.Render("Next:") + "\n")
	for _, bc := range crumbs {
		line := r.Muted.Render("  " + bc.Cmd)
		if bc.Description != "" {
			line += r.Muted.Render("  # " + bc.Description)
		}
		b.WriteString(line + "\n")
	}
}

// Column priority for table rendering (lower = higher priority).
var columnPriority = map[string]int{
	"id":              1,
	"name":            2,
	"summary":         2,
	"date":            3,
	"status":          4,
	"duration":        5,
	"tracked":         5,
	"activity":        5,
	"starts_at":       6,
	"stops_at":        7,
	"recorded_at":     6,
	"user_id":         8,
	"project_id":      9,
	"task_id":         10,
	"organization_id": 11,
	"created_at":      20,
	"updated_at":      21,
}

var mutedColumns = map[string]bool{
	"id":              true,
	"organization_id": true,
	"created_at":      true,
	"updated_at":      true,
}

// durationColumns hold second counts.
var durationColumns = map[string]bool{
	"duration": true,
	"tracked":  true,
	"idle":     true,
	"manual":   true,
}

var skipColumns = map[string]bool{
	"metadata":   true,
	"pagination": true,
}

type column struct {
	key      string
	header   string
	priority int
	muted    bool
	width    int
}

// detectColumns picks scalar columns from the first row, ordered by priority.
func detectColumns(data []map[string]any) []column {
	if len(data) == 0 {
		return nil
	}
	var cols []column
	for key, val := range data[0] {
		if skipColumns[key] {
			continue
		}
		switch val.(type) {
		case map[string]any, []map[string]any, []any:
			continue
		}
		cols = append(cols, column{
			key:      key,
			header:   formatHeader(key),
			priority: priorityOf(key),
			muted:    mutedColumns[key],
		})
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].priority != cols[j].priority {
			return cols[i].priority < cols[j].priority
		}
		return cols[i].key < cols[j].key
	})
	return cols
}

// fitColumns drops trailing columns until the table fits width.
func fitColumns(cols []column, data []map[string]any, width int) []column {
	const padding = 2
	now := time.Now()
	for i := range cols {
		cols[i].width = lipgloss.Width(cols[i].header)
		for _, row := range data {
			cols[i].width = max(cols[i].width, lipgloss.Width(formatValue(cols[i].key, row[cols[i].key], now)))
		}
		cols[i].width = min(cols[i].width, 40)
	}

	selected := cols
	for len(selected) > 1 {
		total := 0
		for _, col := range selected {
			total += col.width + padding
		}
		if total <= width {
			break
		}
		selected = selected[:len(selected)-1]
	}
	return selected
}

func objectFields(data map[string]any) []string {
	var fields []string
	for k, v := range data {
		if skipColumns[k] {
			continue
		}
		switch v.(type) {
		case map[string]any, []map[string]any:
			continue
		}
		fields = append(fields, k)
	}
	sort.Slice(fields, func(i, j int) bool {
		pi, pj := priorityOf(fields[i]), priorityOf(fields[j])
		if pi != pj {
			return pi < pj
		}
		return fields[i] < fields[j]
	})
	return fields
}

func priorityOf(key string) int {
	if p, ok := columnPriority[key]; ok {
		return p
	}
	return 50
}

func formatHeader(key string) string {
	key = strings.TrimSuffix(key, "_at")
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		if w == "id" {
			words[i] = "ID"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatValue formats a cell, humanizing durations and timestamps.
func formatValue(key string, val any, now time.Time) string {
	if durationColumns[key] {
		switch secs := val.(type) {
		case float64:
			return formatDuration(time.Duration(secs) * time.Second)
		case int:
			return formatDuration(time.Duration(secs) * time.Second)
		case int64:
			return formatDuration(time.Duration(secs) * time.Second)
		}
	}
	if strings.HasSuffix(key, "_at") || key == "date" {
		if s, ok := val.(string); ok && s != "" {
			return formatDate(s, now)
		}
	}
	return formatCell(val)
}

// formatDuration renders d as "1h 05m", or "45s" below a minute.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

func formatDate(s string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return s
		}
		return d.Format("Jan 2, 2006")
	}

	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Local().Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	default:
		return t.Local().Format("Jan 2, 2006 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		if len(v) > 40 {
			return v[:37] + "..."
		}
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, formatCell(item))
		}
		return strings.Join(items, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MarkdownRenderer outputs literal Markdown syntax (portable, pipeable).
type MarkdownRenderer struct {
	width int
	now   func() time.Time
}

// NewMarkdownRenderer creates a renderer for literal Markdown output.
func NewMarkdownRenderer(w io.Writer) *MarkdownRenderer {
	width, _ := terminalInfo(w)
	return &MarkdownRenderer{width: width, now: time.Now}
}

// RenderResponse renders a success response as literal Markdown.
func (r *MarkdownRenderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString("## " + resp.Summary + "\n\n")
	}

	r.renderData(&b, NormalizeData(resp.Data))

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n### Next\n\n")
		for _, bc := range resp.Breadcrumbs {
			line := "- `" + bc.Cmd + "`"
			if bc.Description != "" {
				line += ": " + bc.Description
			}
			b.WriteString(line + "\n")
		}
	}

	if stats := extractStats(resp.Meta); stats != nil {
		if line := statsLine(stats); line != "" {
			b.WriteString("\n*" + line + "*\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response as literal Markdown.
func (r *MarkdownRenderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder
	b.WriteString("**Error:** " + resp.Error + "\n")
	if resp.Hint != "" {
		b.WriteString("\n*Hint: " + resp.Hint + "*\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *MarkdownRenderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString("*No results*\n")
			return
		}
		r.renderTable(b, d)
	case map[string]any:
		fields := objectFields(d)
		if len(fields) == 0 {
			b.WriteString("*No data*\n")
			return
		}
		for _, f := range fields {
			b.WriteString("- **" + formatHeader(f) + ":** " + formatValue(f, d[f], r.now()) + "\n")
		}
	case []any:
		if len(d) == 0 {
			b.WriteString("*No results*\n")
			return
		}
		for _, item := range d {
			b.WriteString("- " + formatCell(item) + "\n")
		}
	case nil:
		b.WriteString("*No data*\n")
	case string:
		b.WriteString(d + "\n")
	default:
		fmt.Fprintf(b, "%v\n", data)
	}
}

func (r *MarkdownRenderer) renderTable(b *strings.Builder, data []map[string]any) {
	cols := detectColumns(data)
	if len(cols) == 0 {
		return
	}

	headers := make([]string, len(cols))
	seps := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.header
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")

	now := r.now()
	for _, item := range data {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = strings.ReplaceAll(formatValue(col.key, item[col.key], now), "|", "\\|")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func statsLine(stats map[string]any) string {
	parts := observability.SessionMetricsFromMap(stats).FormatParts()
	if len(parts) == 0 {
		return ""
	}
	return "Stats: " + strings.Join(parts, " | ")
}

// extractStats pulls stats from response meta if present.
func extractStats(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	stats, _ := meta["stats"].(map[string]any)
	return stats
}
