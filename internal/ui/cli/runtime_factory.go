package cli

import (
	"io"
	"os"

	"golang.org/x/term"

	"histop/internal/core/config"
)

// runtime is the process surface a run talks to. Tests swap the streams
// and the environment.
type runtime struct {
	stdin           io.Reader
	stdout          io.Writer
	stderr          io.Writer
	env             config.Env
	stdinIsTerminal func() bool
	defaultConfig   string
}

func newSystemRuntime() *runtime {
	return &runtime{
		stdin:           os.Stdin,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		env:             config.SystemEnv(),
		stdinIsTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		defaultConfig:   config.DefaultConfigPath(),
	}
}

// outputIsTerminal reports whether stdout is an interactive terminal.
func (rt *runtime) outputIsTerminal() bool {
	f, ok := rt.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
