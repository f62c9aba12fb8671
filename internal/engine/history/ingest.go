package history

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	domainErrors "histop/internal/core/errors"
	"histop/internal/shared/observability"
)

// Options are the caller-controlled knobs of one ingestion run.
type Options struct {
	// Dialect forces a reader; DialectAuto sniffs the stream.
	Dialect Dialect
	// Ignore extends the filter set. Entries may be glob patterns.
	Ignore []string
	// NoHist treats input as raw command lines: no wrapper filtering and
	// no pipeline splitting.
	NoHist           bool
	TrackSubcommands bool
}

// Result is the outcome of one ingestion run.
type Result struct {
	Counts      Counts
	Dialect     Dialect
	Lines       int
	Undecodable int
}

// recordReader consumes decoded physical lines and emits logical commands
// through the session.
type recordReader interface {
	line(s *session, line string)
	finish(s *session)
}

func newRecordReader(d Dialect) recordReader {
	switch d {
	case DialectFish:
		return &fishReader{}
	case DialectTcsh:
		return newTcshReader()
	case DialectPowerShell:
		return newPowerShellReader()
	default:
		return &shellReader{}
	}
}

// session is the mutable state of one run.
type session struct {
	extractor      *Extractor
	dialect        Dialect
	lines          int
	undecodable    int
	warnedEncoding bool
}

func (s *session) emit(command string) {
	s.extractor.Add(command)
}

func (s *session) skipUndecodable() {
	s.undecodable++
	if s.warnedEncoding {
		return
	}
	s.warnedEncoding = true
	slog.Warn("skipping history lines that are not valid UTF-8", "dialect", s.dialect.String(), "line", s.lines)
}

// Ingest reads a history stream and aggregates its command names. Only a
// failing read is an error; malformed content is skipped.
func Ingest(r io.Reader, opts Options) (Result, error) {
	start := time.Now()

	filters, err := NewFilterSet(opts.NoHist, opts.Ignore)
	if err != nil {
		return Result{}, domainErrors.Wrap(err, domainErrors.CodeConfig, "build ignore list")
	}

	dialect := opts.Dialect
	if dialect == DialectAuto {
		dialect, r, err = Sniff(r)
		if err != nil {
			return Result{}, fmt.Errorf("detect dialect: %w", err)
		}
	}

	s := &session{
		extractor: NewExtractor(filters, opts.NoHist, opts.TrackSubcommands),
		dialect:   dialect,
	}
	reader := newRecordReader(dialect)

	if err := s.run(r, reader); err != nil {
		return Result{}, err
	}

	label := dialect.String()
	observability.LinesReadTotal.WithLabelValues(label).Add(float64(s.lines))
	observability.UndecodableLinesTotal.Add(float64(s.undecodable))
	observability.CommandsCountedTotal.Add(float64(s.extractor.counted))
	observability.IngestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	slog.Debug("history ingested",
		"dialect", label,
		"lines", s.lines,
		"undecodable", s.undecodable,
		"distinct", len(s.extractor.Counts()),
	)

	return Result{
		Counts:      s.extractor.Counts(),
		Dialect:     dialect,
		Lines:       s.lines,
		Undecodable: s.undecodable,
	}, nil
}

func (s *session) run(r io.Reader, reader recordReader) error {
	br := newLineReader(r)
	for {
		raw, err := readLine(br)
		if raw != nil {
			s.lines++
			if utf8.Valid(raw) {
				reader.line(s, string(raw))
			} else {
				s.skipUndecodable()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
	}
	reader.finish(s)
	return nil
}

// IngestFile opens path ("-" is standard input) and ingests it. Failing to
// open or read the stream is a HISTORY_READ error carrying the path and
// the dialect attempted.
func IngestFile(path string, opts Options) (Result, error) {
	if path == "-" {
		return IngestReader(os.Stdin, path, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, historyReadError(err, path, opts.Dialect)
	}
	defer f.Close()
	return IngestReader(f, path, opts)
}

// IngestReader ingests an already open stream, reporting read failures
// against name like IngestFile does.
func IngestReader(r io.Reader, name string, opts Options) (Result, error) {
	res, err := Ingest(r, opts)
	if err != nil {
		if domainErrors.IsCode(err, domainErrors.CodeConfig) {
			return Result{}, err
		}
		return Result{}, historyReadError(err, name, opts.Dialect)
	}
	return res, nil
}

func historyReadError(err error, path string, d Dialect) error {
	wrapped := domainErrors.Wrap(err, domainErrors.CodeHistoryRead, "failed to read history file")
	wrapped = domainErrors.AddContext(wrapped, domainErrors.CtxPath, path)
	return domainErrors.AddContext(wrapped, domainErrors.CtxDialect, d.String())
}
