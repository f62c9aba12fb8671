package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histop/internal/core/config"
	"histop/internal/engine/history"
	"histop/internal/ui/report"
)

const bashFixture = "git status\ngit status\nsudo apt update\nls | grep foo\n"

// syncBuffer is a bytes.Buffer safe for the watch goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testRuntime struct {
	*runtime
	home   string
	out    *syncBuffer
	errOut *syncBuffer
	vars   map[string]string
}

func newTestRuntime(t *testing.T) *testRuntime {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")

	tr := &testRuntime{
		home:   home,
		out:    &syncBuffer{},
		errOut: &syncBuffer{},
		vars:   map[string]string{"HOME": home},
	}
	tr.runtime = &runtime{
		stdin:  strings.NewReader(""),
		stdout: tr.out,
		stderr: tr.errOut,
		env: config.Env{
			Getenv:      func(key string) string { return tr.vars[key] },
			ParentShell: func() (string, error) { return "", errors.New("no parent shell") },
		},
		stdinIsTerminal: func() bool { return false },
		defaultConfig:   filepath.Join(home, ".config", "histop", "config.toml"),
	}
	return tr
}

func (tr *testRuntime) exec(args ...string) int {
	return tr.run(context.Background(), args)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_TextReport(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	code := tr.exec(path, "--color", "never")
	require.Equal(t, 0, code, tr.errOut.String())

	row := func(count string, unfilled, semi, filled int, pct, label string) string {
		return count + "   │" +
			strings.Repeat("░", unfilled) + strings.Repeat("▓", semi) + strings.Repeat("█", filled) +
			"│ " + pct + "   " + label + "\n"
	}
	want := row("2", 0, 15, 10, "40.00%", "git") +
		row("1", 10, 10, 5, "20.00%", "apt") +
		row("1", 15, 5, 5, "20.00%", "grep") +
		row("1", 20, 0, 5, "20.00%", "ls")
	assert.Equal(t, want, tr.out.String())
}

func TestRun_NoBar(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	require.Equal(t, 0, tr.exec("-n", "-c", "2", path))
	assert.Equal(t, "2   66.67%   git\n1   33.33%   apt\n", tr.out.String())
}

func TestRun_JSON(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	require.Equal(t, 0, tr.exec("-o", "json", "-c", "1", "-f", path))
	assert.Equal(t, "[\n  {\n    \"command\": \"git\",\n    \"count\": 2,\n    \"percentage\": 100.00\n  }\n]\n", tr.out.String())
}

func TestRun_CSVWithIgnoreAndMoreThan(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture+"ls -la\n")

	require.Equal(t, 0, tr.exec("-o", "csv", "-i", "git", "-m", "1", path))
	assert.Equal(t, "command,count,percentage\nls,2,100.00\n", tr.out.String())
}

func TestRun_NoHistReadsStdin(t *testing.T) {
	tr := newTestRuntime(t)
	tr.stdin = strings.NewReader("sudo ls\nls -la\nls | wc\n")

	require.Equal(t, 0, tr.exec("-nh", "-o", "csv"))
	assert.Equal(t, "command,count,percentage\nls,2,66.67\nsudo,1,33.33\n", tr.out.String())
}

func TestRun_NoHistWithTerminalStdin(t *testing.T) {
	tr := newTestRuntime(t)
	tr.stdinIsTerminal = func() bool { return true }

	assert.Equal(t, 2, tr.exec("-nh"))
	assert.Contains(t, tr.errOut.String(), config.NoHistInputError)
	assert.Empty(t, tr.out.String())
}

func TestRun_ExitCodes(t *testing.T) {
	t.Run("conflicting input", func(t *testing.T) {
		tr := newTestRuntime(t)
		assert.Equal(t, 2, tr.exec("-f", "a", "b"))
		assert.Contains(t, tr.errOut.String(), "conflicting input file arguments")
	})
	t.Run("missing file", func(t *testing.T) {
		tr := newTestRuntime(t)
		missing := filepath.Join(tr.home, "nope")
		assert.Equal(t, 1, tr.exec(missing))
		assert.Contains(t, tr.errOut.String(), "HISTORY_READ")
		assert.Contains(t, tr.errOut.String(), missing)
	})
	t.Run("unknown flag", func(t *testing.T) {
		tr := newTestRuntime(t)
		assert.Equal(t, 2, tr.exec("--bogus"))
	})
	t.Run("help", func(t *testing.T) {
		tr := newTestRuntime(t)
		assert.Equal(t, 0, tr.exec("-h"))
		assert.Contains(t, tr.errOut.String(), "Usage: histop")
	})
	t.Run("invalid output format", func(t *testing.T) {
		tr := newTestRuntime(t)
		path := writeFile(t, tr.home, "hist.txt", bashFixture)
		assert.Equal(t, 2, tr.exec("-o", "xml", path))
	})
	t.Run("no history file found", func(t *testing.T) {
		tr := newTestRuntime(t)
		assert.Equal(t, 1, tr.exec())
		assert.Contains(t, tr.errOut.String(), "Checked:")
	})
}

func TestRun_Version(t *testing.T) {
	tr := newTestRuntime(t)
	require.Equal(t, 0, tr.exec("--version"))
	assert.Equal(t, "histop v"+versionString+"\n", tr.out.String())
}

func TestRun_BrokenPipeIsSuccess(t *testing.T) {
	tr := newTestRuntime(t)
	tr.stdout = failingWriter{err: syscall.EPIPE}
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	assert.Equal(t, 0, tr.exec(path))
	assert.Empty(t, tr.errOut.String())
}

func TestRun_OutputErrorFails(t *testing.T) {
	tr := newTestRuntime(t)
	tr.stdout = failingWriter{err: errors.New("disk full")}
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	assert.Equal(t, 1, tr.exec(path))
	assert.Contains(t, tr.errOut.String(), "OUTPUT")
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestRun_OutFile(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)
	target := filepath.Join(tr.home, "reports", "top.yaml")

	require.Equal(t, 0, tr.exec(path, "-o", "yaml", "-c", "1", "--out", target))
	assert.Empty(t, tr.out.String())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "- command: git\n  count: 2\n  percentage: 100.00\n", string(data))
}

func TestRun_ConfigFile(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	writeFile(t, tr.home, ".config/histop/config.toml", "count = 1\noutput = \"csv\"\n")
	require.Equal(t, 0, tr.exec(path))
	assert.Equal(t, "command,count,percentage\ngit,2,100.00\n", tr.out.String())

	// Flags win over the file.
	tr.out = &syncBuffer{}
	tr.stdout = tr.out
	require.Equal(t, 0, tr.exec(path, "-c", "2", "-o", "json"))
	assert.Contains(t, tr.out.String(), `"command": "apt"`)
}

func TestRun_ExplicitConfigErrors(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)

	bad := writeFile(t, tr.home, "bad.toml", "colour = \"never\"\n")
	assert.Equal(t, 2, tr.exec("--config", bad, path))
	assert.Contains(t, tr.errOut.String(), "unknown config keys")

	assert.Equal(t, 2, tr.exec("--config", filepath.Join(tr.home, "missing.toml"), path))
}

func TestRun_RecordRunsAndTrend(t *testing.T) {
	tr := newTestRuntime(t)
	path := writeFile(t, tr.home, "hist.txt", bashFixture)
	db := filepath.Join(tr.home, "archive.db")
	cfg := writeFile(t, tr.home, "histop.toml", "[archive]\npath = \""+filepath.ToSlash(db)+"\"\n")

	require.Equal(t, 0, tr.exec("--config", cfg, "--record", "-c", "1", path), tr.errOut.String())

	tr.out = &syncBuffer{}
	tr.stdout = tr.out
	require.Equal(t, 0, tr.exec("--config", cfg, "--runs"))
	lines := strings.Split(strings.TrimSpace(tr.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "RecordedAt\tID\tDialect\tTotal\tDistinct\tSource", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "\tshell\t5\t4\t"+path), lines[1])

	tr.out = &syncBuffer{}
	tr.stdout = tr.out
	require.Equal(t, 0, tr.exec("--config", cfg, "--trend", "git"))
	assert.Contains(t, tr.out.String(), "\tgit\t2\t40.00\t+0\n")
}

func TestRun_ArchiveOpenErrorNamesOperation(t *testing.T) {
	tr := newTestRuntime(t)
	dir := t.TempDir()
	cfg := writeFile(t, tr.home, "histop.toml", "[archive]\npath = \""+filepath.ToSlash(dir)+"\"\n")

	assert.Equal(t, 1, tr.exec("--config", cfg, "--runs"))
	assert.Contains(t, tr.errOut.String(), "operation=runs")
	assert.Contains(t, tr.errOut.String(), "is a directory")
}

func TestResolveSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Ignore = []string{"cd"}
	cfg.BarSize = 30
	cfg.Count = 10
	cfg.Subcommands = true
	cfg.MaxLabelWidth = 12

	st, err := resolveSettings(cfg, cliOptions{set: map[string]bool{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cd"}, st.ignore)
	assert.Equal(t, 30, st.bar.Width)
	assert.True(t, st.bar.ShowPercentage)
	assert.True(t, st.bar.ShowCumulative)
	assert.True(t, st.showBar)
	assert.Equal(t, 10, st.count)
	assert.True(t, st.subcommands)
	assert.Equal(t, 12, st.maxLabelWidth)
	assert.Equal(t, history.DialectAuto, st.dialect)
	assert.Equal(t, report.FormatText, st.format)
	assert.Equal(t, report.ColorAuto, st.color)

	opts := cliOptions{
		barSize: 8,
		count:   3,
		ignore:  "ls | vim",
		noBar:   true,
		noPerc:  true,
		dialect: "zsh",
		output:  "yml",
		color:   "never",
		set:     map[string]bool{"b": true, "c": true, "i": true, "d": true, "o": true, "color": true},
	}
	st, err = resolveSettings(cfg, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls", "vim"}, st.ignore)
	assert.Equal(t, 0, st.bar.Width)
	assert.False(t, st.bar.ShowPercentage)
	assert.False(t, st.showBar)
	assert.Equal(t, 3, st.count)
	assert.Equal(t, history.DialectShell, st.dialect)
	assert.Equal(t, report.FormatYAML, st.format)
	assert.Equal(t, report.ColorNever, st.color)
}

func TestResolveInput_ShellHint(t *testing.T) {
	tr := newTestRuntime(t)
	writeFile(t, tr.home, ".tcsh_history", "#+1700000000\nls -la\n")
	tr.vars["SHELL"] = "/bin/tcsh"

	st := settings{}
	require.NoError(t, tr.resolveInput(&st))
	assert.Equal(t, filepath.Join(tr.home, ".tcsh_history"), st.input)
	assert.Equal(t, history.DialectTcsh, st.dialect)

	// An explicit dialect is left alone.
	st = settings{dialect: history.DialectShell}
	require.NoError(t, tr.resolveInput(&st))
	assert.Equal(t, history.DialectShell, st.dialect)
}

func TestResolveInput_Histfile(t *testing.T) {
	tr := newTestRuntime(t)
	tr.vars["HISTFILE"] = writeFile(t, tr.home, "custom_history", bashFixture)
	tr.vars["SHELL"] = "/usr/bin/pwsh"

	st := settings{}
	require.NoError(t, tr.resolveInput(&st))
	assert.Equal(t, tr.vars["HISTFILE"], st.input)
	assert.Equal(t, history.DialectAuto, st.dialect)
}

func TestDialectForShell(t *testing.T) {
	tests := []struct {
		shell string
		want  history.Dialect
		ok    bool
	}{
		{"tcsh", history.DialectTcsh, true},
		{"csh", history.DialectTcsh, true},
		{"pwsh", history.DialectPowerShell, true},
		{"bash", history.DialectAuto, false},
		{"fish", history.DialectAuto, false},
		{"", history.DialectAuto, false},
		{"nu", history.DialectAuto, false},
	}
	for _, tt := range tests {
		got, ok := dialectForShell(tt.shell)
		assert.Equal(t, tt.want, got, tt.shell)
		assert.Equal(t, tt.ok, ok, tt.shell)
	}
}
