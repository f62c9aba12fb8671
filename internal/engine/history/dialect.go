package history

import (
	"fmt"
	"strings"
)

// Dialect identifies the record syntax of a history stream. Exactly one
// dialect governs a whole stream.
type Dialect int

const (
	DialectAuto Dialect = iota
	DialectShell
	DialectFish
	DialectTcsh
	DialectPowerShell
)

func (d Dialect) String() string {
	switch d {
	case DialectShell:
		return "shell"
	case DialectFish:
		return "fish"
	case DialectTcsh:
		return "tcsh"
	case DialectPowerShell:
		return "powershell"
	default:
		return "auto"
	}
}

// ParseDialect accepts dialect names and the shell names that map onto them.
func ParseDialect(raw string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return DialectAuto, nil
	case "shell", "bash", "zsh", "ash", "sh":
		return DialectShell, nil
	case "fish":
		return DialectFish, nil
	case "tcsh", "csh":
		return DialectTcsh, nil
	case "powershell", "pwsh":
		return DialectPowerShell, nil
	default:
		return DialectAuto, fmt.Errorf("unknown dialect %q (use auto, shell, fish, tcsh or powershell)", raw)
	}
}
