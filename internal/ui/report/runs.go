package report

import (
	"fmt"
	"strings"
	"time"

	"histop/internal/data/archive"
)

const archiveTimeLayout = "2006-01-02T15:04:05Z07:00"

// RenderRunsTSV lists archived runs, one per line.
func RenderRunsTSV(runs []archive.Run) []byte {
	var buf strings.Builder
	buf.WriteString("RecordedAt\tID\tDialect\tTotal\tDistinct\tSource\n")
	for _, run := range runs {
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.RecordedAt.UTC().Format(archiveTimeLayout),
			run.ID,
			run.Dialect,
			run.Total,
			run.Distinct,
			run.SourcePath,
		)
	}
	return []byte(buf.String())
}

// RenderTrendTSV lists one command's count and share per archived run,
// with the change in count since the previous run.
func RenderTrendTSV(command string, points []archive.TrendPoint) []byte {
	var buf strings.Builder
	buf.WriteString("RecordedAt\tRun\tCommand\tCount\tShare\tDelta\n")
	prev := 0
	for i, p := range points {
		delta := 0
		if i > 0 {
			delta = p.Count - prev
		}
		prev = p.Count
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%d\t%.2f\t%+d\n",
			p.RecordedAt.UTC().Format(archiveTimeLayout),
			p.RunID,
			command,
			p.Count,
			p.Share,
			delta,
		)
	}
	return []byte(buf.String())
}

// ParseSince accepts RFC3339 or YYYY-MM-DD. Empty means no lower bound.
func ParseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}
