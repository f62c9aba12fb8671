package report

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"histop/internal/engine/bar"
)

// Percentage is a share of the displayed total. It serializes with two
// decimals.
type Percentage float64

func (p Percentage) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

func (p Percentage) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Percentage) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: p.String()}, nil
}

// CommandEntry is one row of the machine-readable outputs.
type CommandEntry struct {
	Command    string     `json:"command" yaml:"command"`
	Count      int        `json:"count" yaml:"count"`
	Percentage Percentage `json:"percentage" yaml:"percentage"`
}

// BuildEntries converts ranked commands into entries whose percentages are
// shares of the ranked (displayed) total.
func BuildEntries(ranked []Ranked) []CommandEntry {
	total := 0
	for _, r := range ranked {
		total += r.Count
	}
	entries := make([]CommandEntry, 0, len(ranked))
	for _, r := range ranked {
		var pct float64
		if total > 0 {
			pct = float64(r.Count) / float64(total) * 100
		}
		entries = append(entries, CommandEntry{Command: r.Name, Count: r.Count, Percentage: Percentage(pct)})
	}
	return entries
}

// BarItems converts ranked commands into bar renderer input.
func BarItems(ranked []Ranked) []bar.Item {
	items := make([]bar.Item, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, bar.Item{Label: r.Name, Value: r.Count})
	}
	return items
}
