// Package bar computes proportional bars for ranked (label, value) pairs.
package bar

import (
	"fmt"
	"math"
	"strconv"
)

const DefaultWidth = 25

// Config controls bar rendering. A zero Width suppresses the bar.
type Config struct {
	Width          int
	ShowPercentage bool
	ShowCumulative bool
}

func DefaultConfig() Config {
	return Config{Width: DefaultWidth, ShowPercentage: true, ShowCumulative: true}
}

// Segments are the run widths of one bar, drawn unfilled, semi, filled
// from left to right. They sum to the bar width, or to zero when nothing
// is shown.
type Segments struct {
	Unfilled int
	Semi     int
	Filled   int
}

func (s Segments) Width() int {
	return s.Unfilled + s.Semi + s.Filled
}

// Segment splits a bar of cfg.Width cells for an item holding pct percent
// of the total, with invCumuPct percent of the total still unrendered
// (this item included).
func Segment(pct, invCumuPct float64, cfg Config) Segments {
	w := cfg.Width
	if w <= 0 {
		return Segments{}
	}

	var s Segments
	switch {
	case cfg.ShowPercentage && cfg.ShowCumulative:
		s.Filled = cells(pct, w)
		s.Semi = cells(invCumuPct-pct, w)
		if s.Filled+s.Semi > w {
			s.Semi = w - s.Filled
		}
		s.Unfilled = min(w-s.Filled-s.Semi, w)
	case cfg.ShowPercentage:
		s.Filled = cells(pct, w)
		s.Unfilled = min(w-s.Filled, w)
	case cfg.ShowCumulative:
		s.Semi = cells(invCumuPct, w)
		s.Unfilled = min(w-s.Semi, w)
	}
	return s
}

// cells converts a percentage into a cell count within [0, w]. math.Round
// rounds half away from zero.
func cells(pct float64, w int) int {
	n := int(math.Round(pct / 100 * float64(w)))
	return max(0, min(n, w))
}

// Item is one ranked entry. Items are rendered in the order given.
type Item struct {
	Label string
	Value int
}

// Row is a rendered item ready for display.
type Row struct {
	Segments
	Label      string
	Value      int
	Count      string
	Percentage string
}

// Render computes a row per item. Percentages are shares of the sum of all
// item values; Count is right-aligned to the widest value.
func Render(items []Item, cfg Config) []Row {
	total := 0
	countWidth := 0
	for _, item := range items {
		total += item.Value
		countWidth = max(countWidth, len(strconv.Itoa(item.Value)))
	}
	if total == 0 {
		return nil
	}

	rows := make([]Row, 0, len(items))
	invCumu := 100.0
	for _, item := range items {
		pct := float64(item.Value) / float64(total) * 100
		rows = append(rows, Row{
			Segments:   Segment(pct, invCumu, cfg),
			Label:      item.Label,
			Value:      item.Value,
			Count:      fmt.Sprintf("%*d", countWidth, item.Value),
			Percentage: FormatPercentage(pct),
		})
		invCumu -= pct
	}
	return rows
}

// FormatPercentage renders pct with two decimals and a percent sign.
func FormatPercentage(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}
