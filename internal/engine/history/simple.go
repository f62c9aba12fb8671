package history

import "strings"

// simpleReader treats every non-empty line as one command unless skip
// matches it. It is used by the tcsh and PowerShell dialects.
type simpleReader struct {
	skip func(string) bool
}

func newTcshReader() *simpleReader {
	// tcsh writes "#+<epoch>" timestamp lines between commands.
	return &simpleReader{skip: func(line string) bool {
		return strings.HasPrefix(strings.TrimSpace(line), "#")
	}}
}

func newPowerShellReader() *simpleReader {
	return &simpleReader{}
}

func (r *simpleReader) line(s *session, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if r.skip != nil && r.skip(line) {
		return
	}
	s.emit(line)
}

func (r *simpleReader) finish(*session) {}
