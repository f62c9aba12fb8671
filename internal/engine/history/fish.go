package history

import (
	"strings"
	"unicode"
)

const fishCmdPrefix = "- cmd: "

// fishReader reassembles "- cmd:" entries of fish_history, including
// commands that fish stored across several lines with a trailing '\'.
type fishReader struct {
	current strings.Builder
}

// isFishMetadata reports whether line belongs to the YAML metadata of the
// entry in progress.
func isFishMetadata(line string) bool {
	return strings.HasPrefix(line, "  when: ") ||
		strings.HasPrefix(line, "  paths:") ||
		strings.HasPrefix(line, "  - ")
}

func (r *fishReader) line(s *session, line string) {
	if cmd, ok := strings.CutPrefix(line, fishCmdPrefix); ok {
		r.flush(s)
		r.current.WriteString(cmd)
		return
	}
	if r.current.Len() == 0 {
		return
	}

	text := r.current.String()
	if strings.HasSuffix(text, `\`) && strings.HasPrefix(line, "  ") && !isFishMetadata(line) {
		joined := strings.TrimRightFunc(strings.TrimSuffix(text, `\`), unicode.IsSpace)
		r.current.Reset()
		r.current.WriteString(joined)
		r.current.WriteByte(' ')
		r.current.WriteString(strings.TrimLeftFunc(line, unicode.IsSpace))
		return
	}

	if isFishMetadata(line) {
		r.flush(s)
	}
}

func (r *fishReader) finish(s *session) {
	r.flush(s)
}

func (r *fishReader) flush(s *session) {
	if r.current.Len() == 0 {
		return
	}
	s.emit(r.current.String())
	r.current.Reset()
}
