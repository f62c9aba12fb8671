package history

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// wrapperCommands are skipped in front of the real command while history
// mode is on.
var wrapperCommands = []string{"sudo", "doas"}

// FilterSet holds the names that can never become a command name. Entries
// containing glob metacharacters are compiled to patterns.
type FilterSet struct {
	names    map[string]struct{}
	patterns []glob.Glob
}

// NewFilterSet seeds the wrapper names unless noHist is set, then adds the
// caller's ignore list.
func NewFilterSet(noHist bool, ignore []string) (*FilterSet, error) {
	fs := &FilterSet{names: make(map[string]struct{}, len(ignore)+len(wrapperCommands))}
	if !noHist {
		for _, name := range wrapperCommands {
			fs.names[name] = struct{}{}
		}
	}

	for _, entry := range ignore {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.ContainsAny(entry, "*?[{") {
			fs.names[entry] = struct{}{}
			continue
		}
		g, err := glob.Compile(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", entry, err)
		}
		fs.patterns = append(fs.patterns, g)
	}

	return fs, nil
}

// Contains reports whether name is filtered. A nil set filters nothing.
func (f *FilterSet) Contains(name string) bool {
	if f == nil {
		return false
	}
	if _, ok := f.names[name]; ok {
		return true
	}
	for _, g := range f.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}
