package history

import (
	"strings"
)

// subcommandTools are the commands tracked as "<tool> <subcommand>" when
// subcommand tracking is enabled.
var subcommandTools = map[string]struct{}{
	"git": {}, "cargo": {}, "npm": {}, "yarn": {}, "pnpm": {}, "docker": {},
	"kubectl": {}, "systemctl": {}, "apt": {}, "dnf": {}, "pacman": {},
	"brew": {}, "nix": {}, "rustup": {}, "go": {}, "pip": {}, "poetry": {},
}

// IsSubcommandTool reports whether name is tracked with its subcommand.
func IsSubcommandTool(name string) bool {
	_, ok := subcommandTools[name]
	return ok
}

// FirstWord extracts the command name of one pipeline stage. It skips "--",
// flags, filtered wrappers and FOO=bar assignments, strips stray
// backslashes and leading directories, and stops at a comment. The boolean
// is false when no word survives.
func FirstWord(stage string, filters *FilterSet, trackSubcommands bool) (string, bool) {
	words := strings.Fields(stage)

	for i, w := range words {
		if w == "--" {
			continue
		}
		if strings.HasPrefix(w, "#") {
			return "", false
		}
		if strings.HasPrefix(w, "-") {
			continue
		}

		cleaned := strings.Trim(w, `\`)
		if idx := strings.IndexByte(cleaned, '\\'); idx >= 0 {
			cleaned = cleaned[:idx]
		}

		name := cleaned
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			name = name[idx+1:]
		}
		if name == "" {
			continue
		}

		if strings.HasPrefix(name, "#") {
			return "", false
		}
		if strings.HasPrefix(name, "-") {
			continue
		}
		if filters.Contains(name) {
			continue
		}
		// The assignment check looks at the word before its directories are
		// dropped so FOO=/usr/bin/x is not mistaken for the command x.
		if !strings.HasPrefix(cleaned, "$") && strings.Contains(cleaned, "=") {
			continue
		}

		if trackSubcommands && IsSubcommandTool(name) && i+1 < len(words) {
			if next := words[i+1]; !strings.HasPrefix(next, "-") {
				return name + " " + next, true
			}
		}
		return name, true
	}

	return "", false
}
