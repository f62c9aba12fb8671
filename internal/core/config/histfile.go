package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domainErrors "histop/internal/core/errors"
)

// NoHistInputError explains how to feed -nh when no file was given.
const NoHistInputError = "when using -nh without FILE, provide input through stdin (pipe or redirection), or pass FILE with -f/positional argument"

// HistoryFile is a discovered history file and the shell it belongs to.
// Shell is empty when the file came from $HISTFILE or the default list.
type HistoryFile struct {
	Path  string
	Shell string
}

// Env is the process environment consulted during discovery.
type Env struct {
	Getenv      func(string) string
	ParentShell func() (string, error)
}

// SystemEnv reads the real environment and parent process.
func SystemEnv() Env {
	return Env{Getenv: os.Getenv, ParentShell: ParentShell}
}

// DiscoverHistoryFile picks the history file to read: $HISTFILE, then the
// files of the parent shell and of $SHELL, then a list of common
// locations. The first regular file wins.
func DiscoverHistoryFile(env Env) (HistoryFile, error) {
	var checked []string

	if histfile := env.Getenv("HISTFILE"); histfile != "" {
		checked = append(checked, histfile)
		if isRegularFile(histfile) {
			return HistoryFile{Path: histfile}, nil
		}
	}

	home := env.Getenv("HOME")
	if home == "" {
		return HistoryFile{}, domainErrors.New(domainErrors.CodeNotFound,
			"could not determine shell history file: HOME environment variable is not set")
	}

	var shells []string
	if env.ParentShell != nil {
		if parent, err := env.ParentShell(); err == nil && parent != "" {
			shells = pushUnique(shells, parent)
		}
	}
	if shellPath := env.Getenv("SHELL"); shellPath != "" {
		shells = pushUnique(shells, filepath.Base(shellPath))
	}

	type candidate struct{ path, shell string }
	var candidates []candidate
	seen := make(map[string]bool)
	add := func(path, shell string) {
		if !seen[path] {
			seen[path] = true
			candidates = append(candidates, candidate{path, shell})
		}
	}
	for _, shell := range shells {
		for _, path := range ShellHistoryCandidates(home, shell) {
			add(path, shell)
		}
	}
	for _, path := range DefaultHistoryCandidates(home) {
		add(path, "")
	}

	for _, c := range candidates {
		checked = append(checked, c.path)
		if isRegularFile(c.path) {
			return HistoryFile{Path: c.path, Shell: c.shell}, nil
		}
	}

	return HistoryFile{}, domainErrors.New(domainErrors.CodeNotFound,
		fmt.Sprintf("could not determine shell history file. Checked: %s", strings.Join(checked, ", ")))
}

// ShellHistoryCandidates lists the history files a shell is known to write.
func ShellHistoryCandidates(home, shell string) []string {
	switch shell {
	case "ash":
		return []string{filepath.Join(home, ".ash_history")}
	case "bash":
		return []string{filepath.Join(home, ".bash_history")}
	case "fish":
		return []string{filepath.Join(home, ".local/share/fish/fish_history")}
	case "zsh":
		return []string{
			filepath.Join(home, ".config/zsh/.zsh_history"),
			filepath.Join(home, ".zsh_history"),
		}
	case "pwsh":
		return []string{filepath.Join(home, ".local/share/powershell/PSReadLine/ConsoleHost_history.txt")}
	case "tcsh", "csh":
		return []string{
			filepath.Join(home, ".history"),
			filepath.Join(home, ".csh_history"),
			filepath.Join(home, ".tcsh_history"),
		}
	default:
		return nil
	}
}

func DefaultHistoryCandidates(home string) []string {
	return []string{
		filepath.Join(home, ".bash_history"),
		filepath.Join(home, ".zsh_history"),
		filepath.Join(home, ".config/zsh/.zsh_history"),
		filepath.Join(home, ".ash_history"),
		filepath.Join(home, ".local/share/fish/fish_history"),
		filepath.Join(home, ".local/share/powershell/PSReadLine/ConsoleHost_history.txt"),
		filepath.Join(home, ".history"),
	}
}

// ParentShell names the program that started this process, read from
// /proc. Login shells ("-zsh") lose their leading dash.
func ParentShell() (string, error) {
	cmdline, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(os.Getppid()), "cmdline"))
	if err != nil {
		return "", err
	}
	return shellFromCmdline(cmdline)
}

func shellFromCmdline(cmdline []byte) (string, error) {
	first, _, _ := bytes.Cut(cmdline, []byte{0})
	if len(first) == 0 {
		return "", fmt.Errorf("empty parent cmdline")
	}
	name := strings.TrimPrefix(filepath.Base(string(first)), "-")
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("failed to parse parent cmdline %q", first)
	}
	return name, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func pushUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
