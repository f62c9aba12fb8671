package history

import "strings"

// shellState is the continuation state of the shell reader.
type shellState int

const (
	stateNormal shellState = iota
	stateAwaitingContinuation
)

func (s shellState) String() string {
	if s == stateAwaitingContinuation {
		return "awaiting-continuation"
	}
	return "normal"
}

// shellLine is one decoded physical line after zsh metadata stripping.
type shellLine struct {
	content       string
	metadataNoCmd bool
	continued     bool
}

// classifyShellLine strips an extended zsh ": <ts>:<flags>;" prefix. A
// metadata line without ';' carries no command.
func classifyShellLine(line string) shellLine {
	if strings.HasPrefix(line, ": ") {
		_, cmd, ok := strings.Cut(line, ";")
		if !ok {
			return shellLine{metadataNoCmd: true}
		}
		line = cmd
	}
	return shellLine{content: line, continued: strings.HasSuffix(line, `\`)}
}

// shellTransition applies one line to the state machine. It returns the
// next state and whether the line's content is extracted.
//
//	normal,   plain              -> normal,   extract
//	normal,   trailing '\'       -> awaiting, extract
//	any,      metadata, no ';'   -> awaiting
//	awaiting, trailing '\'       -> awaiting
//	awaiting, no trailing '\'    -> normal
func shellTransition(state shellState, line shellLine) (shellState, bool) {
	if line.metadataNoCmd {
		return stateAwaitingContinuation, false
	}
	switch state {
	case stateNormal:
		if line.continued {
			return stateAwaitingContinuation, true
		}
		return stateNormal, true
	default:
		if line.continued {
			return stateAwaitingContinuation, false
		}
		return stateNormal, false
	}
}

// shellReader handles bash, zsh, ash and sh history.
type shellReader struct {
	state shellState
}

func (r *shellReader) line(s *session, line string) {
	parsed := classifyShellLine(line)
	next, extract := shellTransition(r.state, parsed)
	r.state = next
	if extract {
		s.emit(parsed.content)
	}
}

func (r *shellReader) finish(*session) {}
