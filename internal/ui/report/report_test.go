package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histop/internal/engine/bar"
	"histop/internal/engine/history"
)

func sampleCounts() history.Counts {
	return history.Counts{"git": 5, "ls": 3, "cd": 3, "vim": 1, "apt": 1}
}

func TestRank_OrdersByCountThenName(t *testing.T) {
	ranked := Rank(sampleCounts(), 0)
	assert.Equal(t, []Ranked{
		{Name: "git", Count: 5},
		{Name: "cd", Count: 3},
		{Name: "ls", Count: 3},
		{Name: "apt", Count: 1},
		{Name: "vim", Count: 1},
	}, ranked)
}

func TestRank_MoreThanIsStrict(t *testing.T) {
	ranked := Rank(sampleCounts(), 3)
	assert.Equal(t, []Ranked{{Name: "git", Count: 5}}, ranked)

	assert.Empty(t, Rank(sampleCounts(), 5))
	assert.Empty(t, Rank(history.Counts{}, 0))
}

func TestLimit(t *testing.T) {
	ranked := Rank(sampleCounts(), 0)

	assert.Len(t, Limit(ranked, 2, false), 2)
	assert.Len(t, Limit(ranked, 50, false), 5)
	assert.Len(t, Limit(ranked, 2, true), 5)
	assert.Empty(t, Limit(ranked, 0, false))
}

func TestBuildEntries_PercentagesOverDisplayedTotal(t *testing.T) {
	top := Limit(Rank(sampleCounts(), 0), 2, false)
	entries := BuildEntries(top)

	require.Len(t, entries, 2)
	assert.Equal(t, "git", entries[0].Command)
	assert.Equal(t, "62.50", entries[0].Percentage.String())
	assert.Equal(t, "37.50", entries[1].Percentage.String())
}

func TestBuildEntries_Empty(t *testing.T) {
	assert.Empty(t, BuildEntries(nil))
}

func TestRenderJSON(t *testing.T) {
	entries := BuildEntries([]Ranked{{Name: "git", Count: 2}, {Name: "ls", Count: 1}})

	out, err := RenderJSON(entries)
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "command": "git",
    "count": 2,
    "percentage": 66.67
  },
  {
    "command": "ls",
    "count": 1,
    "percentage": 33.33
  }
]
`, string(out))

	empty, err := RenderJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestRenderCSV(t *testing.T) {
	entries := BuildEntries([]Ranked{{Name: "git", Count: 3}, {Name: `a,"b"`, Count: 1}})

	out, err := RenderCSV(entries)
	require.NoError(t, err)
	assert.Equal(t, "command,count,percentage\ngit,3,75.00\n\"a,\"\"b\"\"\",1,25.00\n", string(out))
}

func TestRenderYAML(t *testing.T) {
	entries := BuildEntries([]Ranked{{Name: "git", Count: 1}, {Name: "ls", Count: 1}})

	out, err := RenderYAML(entries)
	require.NoError(t, err)
	assert.Equal(t, "- command: git\n  count: 1\n  percentage: 50.00\n- command: ls\n  count: 1\n  percentage: 50.00\n", string(out))
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"": ColorAuto, "auto": ColorAuto, "Always": ColorAlways, "never": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestColorMode_Enabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, ColorAlways.Enabled(&buf))
	assert.False(t, ColorNever.Enabled(&buf))
	assert.False(t, ColorAuto.Enabled(&buf))
}

func textRows() []bar.Row {
	items := BarItems([]Ranked{{Name: "git", Count: 3}, {Name: "ls", Count: 1}})
	return bar.Render(items, bar.Config{Width: 4, ShowPercentage: true, ShowCumulative: true})
}

func TestRenderText_WithBar(t *testing.T) {
	var buf bytes.Buffer
	out := RenderText(textRows(), TextOptions{ShowBar: true}, NewColorizer(ColorNever, &buf))

	assert.Equal(t, "3   │▓███│ 75.00%   git\n1   │░░░█│ 25.00%   ls\n", string(out))
}

func TestRenderText_WithoutBar(t *testing.T) {
	out := RenderText(textRows(), TextOptions{}, nil)
	assert.Equal(t, "3   75.00%   git\n1   25.00%   ls\n", string(out))
}

func TestRenderText_AlignsColumns(t *testing.T) {
	items := BarItems([]Ranked{{Name: "git", Count: 99}, {Name: "ls", Count: 1}})
	rows := bar.Render(items, bar.Config{})

	out := RenderText(rows, TextOptions{}, nil)
	assert.Equal(t, "99   99.00%   git\n 1    1.00%   ls\n", string(out))
}

func TestRenderText_ColorAlwaysStyles(t *testing.T) {
	var buf bytes.Buffer
	c := NewColorizer(ColorAlways, &buf)
	require.True(t, c.Enabled())

	out := string(RenderText(textRows(), TextOptions{ShowBar: true}, c))
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "git")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "kubectl", TruncateLabel("kubectl", 0))
	assert.Equal(t, "kubectl", TruncateLabel("kubectl", 7))
	assert.Equal(t, "kube…", TruncateLabel("kubectl", 5))
	assert.Equal(t, "日本…", TruncateLabel("日本語テキスト", 5))
}

func TestPlainBar(t *testing.T) {
	assert.Equal(t, "░░▓█", PlainBar(bar.Segments{Unfilled: 2, Semi: 1, Filled: 1}))
	assert.Empty(t, PlainBar(bar.Segments{}))
}
