package report

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"histop/internal/engine/bar"
)

const (
	columnPadding = "   "
	glyphUnfilled = "░"
	glyphSemi     = "▓"
	glyphFilled   = "█"
	barEdge       = "│"
)

// TextOptions shape the text report.
type TextOptions struct {
	ShowBar bool
	// MaxLabelWidth truncates labels to this many terminal cells; zero
	// disables truncation.
	MaxLabelWidth int
}

// RenderText lays rows out as "<count>   │<bar>│ <percentage>   <label>".
// Percentages are right-aligned to the widest one.
func RenderText(rows []bar.Row, opts TextOptions, c *Colorizer) []byte {
	if c == nil {
		c = &Colorizer{}
	}
	percWidth := 0
	for _, row := range rows {
		percWidth = max(percWidth, len(row.Percentage))
	}

	var buf strings.Builder
	for _, row := range rows {
		buf.WriteString(c.paint(c.count, row.Count))
		buf.WriteString(columnPadding)
		if opts.ShowBar && row.Width() > 0 {
			buf.WriteString(renderBar(row.Segments, c))
			buf.WriteByte(' ')
		}
		buf.WriteString(strings.Repeat(" ", percWidth-len(row.Percentage)))
		buf.WriteString(c.paint(c.percentage, row.Percentage))
		buf.WriteString(columnPadding)
		buf.WriteString(c.paint(c.label, TruncateLabel(row.Label, opts.MaxLabelWidth)))
		buf.WriteByte('\n')
	}
	return []byte(buf.String())
}

func renderBar(s bar.Segments, c *Colorizer) string {
	return barEdge +
		c.paint(c.unfilled, strings.Repeat(glyphUnfilled, s.Unfilled)) +
		c.paint(c.semi, strings.Repeat(glyphSemi, s.Semi)) +
		c.paint(c.filled, strings.Repeat(glyphFilled, s.Filled)) +
		barEdge
}

// PlainBar draws segments without color or edges.
func PlainBar(s bar.Segments) string {
	return strings.Repeat(glyphUnfilled, s.Unfilled) +
		strings.Repeat(glyphSemi, s.Semi) +
		strings.Repeat(glyphFilled, s.Filled)
}

// TruncateLabel shortens label to width terminal cells with an ellipsis.
func TruncateLabel(label string, width int) string {
	if width <= 0 || runewidth.StringWidth(label) <= width {
		return label
	}
	return runewidth.Truncate(label, width, "…")
}
