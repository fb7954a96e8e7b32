package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/appctx"
	"github.com/hubstaff-go/hubstaff/internal/dateparse"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// pageFlags holds the pagination flags shared by list commands.
type pageFlags struct {
	startID string
	limit   int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.startID, "page-start-id", "", "Start listing at this cursor")
	cmd.Flags().IntVar(&p.limit, "page-limit", 0, "Maximum number of results per page")
}

func (p *pageFlags) pagination() *hubstaff.Pagination {
	if p.startID == "" && p.limit <= 0 {
		return nil
	}
	return &hubstaff.Pagination{PageStartID: hubstaff.Cursor(p.startID), PageLimit: p.limit}
}

// nextPageBreadcrumb suggests the command that fetches the following page.
// cmdLine is the command without pagination flags.
func nextPageBreadcrumb(next *hubstaff.Pagination, cmdLine string) []output.Breadcrumb {
	if next == nil {
		return nil
	}
	cmdLine += " --page-start-id " + string(next.PageStartID)
	if next.PageLimit > 0 {
		cmdLine += " --page-limit " + strconv.Itoa(next.PageLimit)
	}
	return []output.Breadcrumb{{
		Action:      "next",
		Cmd:         cmdLine,
		Description: "Fetch the next page",
	}}
}

// parseID parses a positive numeric resource ID.
func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, output.ErrUsageHint(
			fmt.Sprintf("Invalid %s ID", kind),
			fmt.Sprintf("'%s' is not a valid %s ID", raw, kind),
		)
	}
	return id, nil
}

// parseIDs parses a list of IDs from repeated or comma-separated flags.
func parseIDs(kind string, raw []string) ([]int64, error) {
	var ids []int64
	for _, r := range raw {
		for part := range strings.SplitSeq(r, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(kind, part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseQueryPairs turns key=value pairs into a query. Repeated keys
// collect into a list.
func parseQueryPairs(pairs []string) (hubstaff.Query, error) {
	q := hubstaff.Query{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, output.ErrUsageHint(
				fmt.Sprintf("Invalid query parameter %q", pair),
				"Use --query key=value",
			)
		}
		switch prev := q[key].(type) {
		case nil:
			q[key] = value
		case string:
			q[key] = []string{prev, value}
		case []string:
			q[key] = append(prev, value)
		}
	}
	return q, nil
}

// parseJSONObject decodes a --data argument. A leading @ reads the
// object from a file.
func parseJSONObject(data string) (map[string]any, error) {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path) //nolint:gosec // G304: Path is supplied by the user
		if err != nil {
			return nil, output.ErrUsage(fmt.Sprintf("read %s: %v", path, err))
		}
		raw = b
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, output.ErrUsageHint("Invalid JSON data", "--data must be a JSON object")
	}
	return body, nil
}

// timeRange resolves --start and --stop, defaulting to the last 24 hours.
func timeRange(start, stop string, now time.Time) (time.Time, time.Time, error) {
	if stop == "" {
		stop = "now"
	}
	if start == "" {
		start = "-24h"
	}
	from, err := dateparse.Parse(start, now)
	if err != nil {
		return time.Time{}, time.Time{}, output.ErrUsage(fmt.Sprintf("--start: %v", err))
	}
	to, err := dateparse.Parse(stop, now)
	if err != nil {
		return time.Time{}, time.Time{}, output.ErrUsage(fmt.Sprintf("--stop: %v", err))
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, output.ErrUsage("--start must be before --stop")
	}
	return from, to, nil
}

// client fetches the SDK client for a command.
func client(cmd *cobra.Command) (*appctx.App, *hubstaff.Client, error) {
	app := appctx.FromContext(cmd.Context())
	c, err := app.Client(cmd.Context())
	if err != nil {
		return app, nil, err
	}
	return app, c, nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// atomicWriteFile writes data to a file atomically using temp+rename.
// Files are always created with 0600 permissions (owner read/write only).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows: rename fails when destination exists.
	if err := os.Rename(tmpPath, path); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(path)
			return os.Rename(tmpPath, path)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}
