package history

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

const detectSampleLines = 64

// Detect samples up to the first 64 non-empty lines of r and picks Fish or
// Shell by structural markers. Ties go to Shell. Undecodable lines are
// ignored.
func Detect(r io.Reader) (Dialect, error) {
	br := newLineReader(r)
	fishScore, shellScore, inspected := 0, 0, 0

	for inspected < detectSampleLines {
		raw, err := readLine(br)
		if raw == nil && err != nil {
			if err == io.EOF {
				break
			}
			return DialectAuto, err
		}

		if utf8.Valid(raw) {
			line := string(raw)
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				inspected++
				switch {
				case strings.HasPrefix(trimmed, "- cmd: "):
					fishScore += 4
				case strings.HasPrefix(trimmed, "when: "), strings.HasPrefix(trimmed, "paths:"):
					fishScore += 2
				case strings.HasPrefix(line, "  when: "), strings.HasPrefix(line, "  paths: "), strings.HasPrefix(line, "  - "):
					fishScore++
				case strings.HasPrefix(line, ": ") && strings.Contains(line, ";"):
					shellScore += 3
				default:
					shellScore++
				}
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return DialectAuto, err
		}
	}

	if fishScore > shellScore {
		return DialectFish, nil
	}
	return DialectShell, nil
}

// Sniff runs Detect over r and returns a reader that replays every byte the
// detector consumed, so non-seekable inputs such as stdin still ingest whole.
func Sniff(r io.Reader) (Dialect, io.Reader, error) {
	var consumed bytes.Buffer
	dialect, err := Detect(io.TeeReader(r, &consumed))
	if err != nil {
		return DialectAuto, nil, err
	}
	return dialect, io.MultiReader(&consumed, r), nil
}

const lineBufferSize = 64 * 1024

func newLineReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, lineBufferSize)
}

// readLine returns one physical line without its "\n" or "\r\n" terminator.
// The final line of a stream may come back together with io.EOF.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadBytes('\n')
	if len(line) == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	line = bytes.TrimRight(line, "\r\n")
	if err == io.EOF {
		return line, io.EOF
	}
	return line, err
}
