package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"histop/internal/core/config"
	domainErrors "histop/internal/core/errors"
	"histop/internal/engine/bar"
	"histop/internal/engine/history"
	"histop/internal/shared/observability"
	"histop/internal/shared/util"
	"histop/internal/ui/report"
)

// errBrokenPipe marks a reader that went away. The run still succeeds.
var errBrokenPipe = errors.New("broken pipe")

func Run(args []string) int {
	// Writes to a closed pipe must fail with EPIPE instead of killing the
	// process, so `histop | head` exits cleanly.
	signal.Ignore(syscall.SIGPIPE)
	return newSystemRuntime().run(context.Background(), args)
}

func (rt *runtime) run(ctx context.Context, args []string) int {
	opts, err := parseOptions(args, rt.stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var de *domainErrors.DomainError
		if errors.As(err, &de) {
			fmt.Fprintf(rt.stderr, "histop: %s\n", de.Message)
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(rt.stdout, "histop v%s\n", versionString)
		return 0
	}

	cleanupLogs := rt.configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	if err := rt.execute(ctx, opts); err != nil {
		if errors.Is(err, errBrokenPipe) {
			return 0
		}
		slog.Debug("run failed", "error", err)
		fmt.Fprintf(rt.stderr, "histop: %v\n", err)
		return domainErrors.ExitCode(err)
	}
	return 0
}

func (rt *runtime) execute(ctx context.Context, opts cliOptions) error {
	cfg, err := rt.loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := resolveSettings(cfg, opts)
	if err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, versionString)
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", cfg.Observability.OTLPEndpoint, "error", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	switch {
	case opts.runs:
		return rt.listRuns(cfg, opts)
	case opts.trend != "":
		return rt.showTrend(cfg, opts)
	}

	if err := rt.resolveInput(&st); err != nil {
		return err
	}

	if opts.watch || opts.ui {
		return rt.watch(ctx, cfg, opts, st)
	}

	snap, err := rt.collect(ctx, st)
	if err != nil {
		return err
	}
	if opts.record || cfg.Archive.Enabled {
		if err := rt.record(ctx, cfg, snap); err != nil {
			return err
		}
	}
	data, err := rt.render(ctx, st, snap.ranked)
	if err != nil {
		return err
	}
	return rt.emit(st, data)
}

// loadConfig layers the default file, --config and the environment, then
// applies command-line overrides for the keys that have a flag.
func (rt *runtime) loadConfig(opts cliOptions) (*config.Config, error) {
	cfg, err := config.LoadLayered(rt.defaultConfig, opts.configPath)
	if err != nil {
		wrapped := domainErrors.Wrap(err, domainErrors.CodeConfig, "failed to load config")
		if opts.configPath != "" {
			wrapped = domainErrors.AddContext(wrapped, domainErrors.CtxPath, opts.configPath)
		}
		return nil, wrapped
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.record {
		cfg.Archive.Enabled = true
	}
	return cfg, nil
}

// settings is everything one ingest-and-render pass needs, resolved from
// configuration and flags.
type settings struct {
	input         string
	shell         string
	dialect       history.Dialect
	ignore        []string
	noHist        bool
	subcommands   bool
	count         int
	all           bool
	moreThan      int
	bar           bar.Config
	showBar       bool
	format        report.OutputFormat
	color         report.ColorMode
	maxLabelWidth int
	outPath       string
}

func resolveSettings(cfg *config.Config, opts cliOptions) (settings, error) {
	st := settings{
		input:         opts.file,
		ignore:        cfg.Ignore,
		noHist:        opts.noHist,
		subcommands:   cfg.Subcommands || opts.subcommands,
		count:         cfg.Count,
		all:           opts.all,
		moreThan:      cfg.MoreThan,
		showBar:       !opts.noBar,
		maxLabelWidth: cfg.MaxLabelWidth,
		outPath:       opts.outPath,
	}
	if opts.set["c"] {
		st.count = opts.count
	}
	if opts.set["m"] {
		st.moreThan = opts.moreThan
	}
	if opts.set["i"] {
		st.ignore = config.SplitList(opts.ignore)
	}

	width := cfg.BarSize
	if opts.set["b"] {
		width = opts.barSize
	}
	if opts.noBar {
		width = 0
	}
	st.bar = bar.Config{Width: width, ShowPercentage: !opts.noPerc, ShowCumulative: !opts.noCumu}

	dialect := cfg.Dialect
	if opts.set["d"] {
		dialect = opts.dialect
	}
	format := cfg.Output
	if opts.set["o"] {
		format = opts.output
	}
	color := cfg.Color
	if opts.set["color"] {
		color = opts.color
	}

	var err error
	if st.dialect, err = history.ParseDialect(dialect); err != nil {
		return settings{}, domainErrors.Wrap(err, domainErrors.CodeConfig, "invalid dialect")
	}
	if st.format, err = report.ParseOutputFormat(format); err != nil {
		return settings{}, domainErrors.Wrap(err, domainErrors.CodeConfig, "invalid output format")
	}
	if st.color, err = report.ParseColorMode(color); err != nil {
		return settings{}, domainErrors.Wrap(err, domainErrors.CodeConfig, "invalid color mode")
	}
	return st, nil
}

// resolveInput picks the stream to read when no FILE was given.
func (rt *runtime) resolveInput(st *settings) error {
	if st.input != "" {
		return nil
	}
	if st.noHist {
		if rt.stdinIsTerminal() {
			return domainErrors.New(domainErrors.CodeConfig, config.NoHistInputError)
		}
		st.input = "-"
		return nil
	}

	found, err := config.DiscoverHistoryFile(rt.env)
	if err != nil {
		return err
	}
	st.input = found.Path
	st.shell = found.Shell
	slog.Debug("using history file", "path", found.Path, "shell", found.Shell)

	if st.dialect == history.DialectAuto {
		if d, ok := dialectForShell(found.Shell); ok {
			st.dialect = d
		}
	}
	return nil
}

// dialectForShell maps the shell a history file was found for onto a
// reader. The detector only tells shell from fish, so tcsh and PowerShell
// files rely on this hint.
func dialectForShell(shell string) (history.Dialect, bool) {
	if shell == "" {
		return history.DialectAuto, false
	}
	d, err := history.ParseDialect(shell)
	if err != nil || (d != history.DialectTcsh && d != history.DialectPowerShell) {
		return history.DialectAuto, false
	}
	return d, true
}

// snapshot is one ingest and ranking pass.
type snapshot struct {
	source string
	result history.Result
	ranked []report.Ranked
}

func (rt *runtime) collect(ctx context.Context, st settings) (snapshot, error) {
	_, span := observability.Tracer.Start(ctx, "histop.ingest", trace.WithAttributes(
		attribute.String("histop.source", st.input),
		attribute.String("histop.dialect", st.dialect.String()),
	))
	defer span.End()

	opts := history.Options{
		Dialect:          st.dialect,
		Ignore:           st.ignore,
		NoHist:           st.noHist,
		TrackSubcommands: st.subcommands,
	}
	var (
		res history.Result
		err error
	)
	if st.input == "-" {
		res, err = history.IngestReader(rt.stdin, st.input, opts)
	} else {
		res, err = history.IngestFile(st.input, opts)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return snapshot{}, err
	}

	span.SetAttributes(
		attribute.String("histop.detected_dialect", res.Dialect.String()),
		attribute.Int("histop.lines", res.Lines),
		attribute.Int("histop.distinct", len(res.Counts)),
	)

	ranked := report.Limit(report.Rank(res.Counts, st.moreThan), st.count, st.all)
	return snapshot{source: st.input, result: res, ranked: ranked}, nil
}

func (rt *runtime) render(ctx context.Context, st settings, ranked []report.Ranked) ([]byte, error) {
	_, span := observability.Tracer.Start(ctx, "histop.render", trace.WithAttributes(
		attribute.String("histop.format", string(st.format)),
		attribute.Int("histop.rows", len(ranked)),
	))
	defer span.End()

	var (
		data []byte
		err  error
	)
	switch st.format {
	case report.FormatJSON:
		data, err = report.RenderJSON(report.BuildEntries(ranked))
	case report.FormatCSV:
		data, err = report.RenderCSV(report.BuildEntries(ranked))
	case report.FormatYAML:
		data, err = report.RenderYAML(report.BuildEntries(ranked))
	default:
		rows := bar.Render(report.BarItems(ranked), st.bar)
		colorizer := report.NewColorizer(st.color, rt.stdout)
		if st.outPath != "" {
			colorizer = report.NewColorizer(st.color, io.Discard)
		}
		data = report.RenderText(rows, report.TextOptions{ShowBar: st.showBar, MaxLabelWidth: st.maxLabelWidth}, colorizer)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domainErrors.Wrap(err, domainErrors.CodeOutput, "failed to render report")
	}
	return data, nil
}

// emit writes a rendered report to --out or stdout.
func (rt *runtime) emit(st settings, data []byte) error {
	if st.outPath != "" {
		if err := util.WriteFileWithDirs(st.outPath, data, 0o644); err != nil {
			wrapped := domainErrors.Wrap(err, domainErrors.CodeOutput, "failed to write report")
			return domainErrors.AddContext(wrapped, domainErrors.CtxPath, st.outPath)
		}
		return nil
	}
	return rt.write(data)
}

func (rt *runtime) write(data []byte) error {
	if _, err := rt.stdout.Write(data); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			return errBrokenPipe
		}
		return domainErrors.Wrap(err, domainErrors.CodeOutput, "failed to write output")
	}
	return nil
}

func (rt *runtime) configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := rt.stderr
	closeFn := func() {}
	if uiMode {
		// The terminal belongs to the UI; logs go to a file or nowhere.
		output = io.Discard
		logPath := resolveLogPath()
		f, err := util.OpenAppendPrivate(logPath)
		if err == nil {
			output = f
			closeFn = func() { _ = f.Close() }
		} else {
			fmt.Fprintf(rt.stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if dir := config.StateDir(); dir != "" {
		return filepath.Join(dir, "histop.log")
	}
	return "histop.log"
}
