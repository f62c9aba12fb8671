package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

func ParseColorMode(raw string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (use auto, always or never)", raw)
	}
}

// Enabled resolves auto against whether w is a terminal.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
}

// Colorizer styles the parts of a text report. A disabled colorizer
// returns text unchanged.
type Colorizer struct {
	enabled    bool
	count      lipgloss.Style
	unfilled   lipgloss.Style
	semi       lipgloss.Style
	filled     lipgloss.Style
	percentage lipgloss.Style
	label      lipgloss.Style
}

func NewColorizer(mode ColorMode, w io.Writer) *Colorizer {
	enabled := mode.Enabled(w)
	profile := termenv.Ascii
	if enabled {
		profile = termenv.ANSI
	}
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)

	return &Colorizer{
		enabled:    enabled,
		count:      r.NewStyle().Foreground(lipgloss.Color("11")),
		unfilled:   r.NewStyle().Foreground(lipgloss.Color("8")),
		semi:       r.NewStyle().Foreground(lipgloss.Color("4")),
		filled:     r.NewStyle().Foreground(lipgloss.Color("6")),
		percentage: r.NewStyle().Foreground(lipgloss.Color("2")),
		label:      r.NewStyle().Bold(true),
	}
}

func (c *Colorizer) Enabled() bool { return c != nil && c.enabled }

func (c *Colorizer) paint(s lipgloss.Style, text string) string {
	if !c.Enabled() || text == "" {
		return text
	}
	return s.Render(text)
}
