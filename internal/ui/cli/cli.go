package cli

import (
	"flag"
	"fmt"
	"io"

	domainErrors "histop/internal/core/errors"
)

const versionString = "1.0.0"

const defaultRunsLimit = 20

const conflictingInputError = "conflicting input file arguments: use either -f <FILE> or positional FILE, not both"

type cliOptions struct {
	file        string
	count       int
	all         bool
	moreThan    int
	ignore      string
	barSize     int
	noBar       bool
	noHist      bool
	noPerc      bool
	noCumu      bool
	subcommands bool
	dialect     string
	output      string
	color       string
	outPath     string
	configPath  string
	record      bool
	runs        bool
	trend       string
	since       string
	limit       int
	watch       bool
	ui          bool
	metricsAddr string
	verbose     bool
	version     bool

	// set holds the names of flags given on the command line, so only
	// those override the configuration.
	set map[string]bool
}

// inputFlag accepts the history file once, from -f or a positional
// argument.
type inputFlag struct {
	target *string
}

func (f *inputFlag) String() string {
	if f.target == nil {
		return ""
	}
	return *f.target
}

func (f *inputFlag) Set(value string) error {
	if *f.target != "" {
		return domainErrors.New(domainErrors.CodeConflict, conflictingInputError)
	}
	*f.target = value
	return nil
}

func parseOptions(args []string, output io.Writer) (cliOptions, error) {
	opts := cliOptions{set: make(map[string]bool)}
	fs := flag.NewFlagSet("histop", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: histop [options] [FILE]")
		fmt.Fprintln(fs.Output(), "\nRank the commands in your shell history.\n\nOptions:")
		fs.PrintDefaults()
	}

	input := &inputFlag{target: &opts.file}
	fs.Var(input, "f", "History `FILE` to read (- reads stdin)")
	fs.IntVar(&opts.count, "c", 0, "Show the top `N` commands (default 25)")
	fs.BoolVar(&opts.all, "a", false, "Show all commands")
	fs.IntVar(&opts.moreThan, "m", 0, "Only show commands used more than `N` times")
	fs.StringVar(&opts.ignore, "i", "", "Ignore commands, separated by | (glob patterns allowed)")
	fs.IntVar(&opts.barSize, "b", 0, "Bar width in cells (default 25)")
	fs.BoolVar(&opts.noBar, "n", false, "Do not draw the bar")
	fs.BoolVar(&opts.noHist, "nh", false, "Input is raw command lines, not a history file")
	fs.BoolVar(&opts.noPerc, "np", false, "Leave the percentage segment out of the bar")
	fs.BoolVar(&opts.noCumu, "nc", false, "Leave the cumulative segment out of the bar")
	fs.BoolVar(&opts.subcommands, "s", false, "Count subcommands of git, cargo, docker and similar tools")
	fs.StringVar(&opts.dialect, "d", "", "History dialect: auto, shell, fish, tcsh or powershell")
	fs.StringVar(&opts.output, "o", "", "Output format: text, json, csv or yaml")
	fs.StringVar(&opts.color, "color", "", "Color output: auto, always or never")
	fs.StringVar(&opts.outPath, "out", "", "Write the report to `PATH` instead of stdout")
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.BoolVar(&opts.record, "record", false, "Save this run to the archive")
	fs.BoolVar(&opts.runs, "runs", false, "List archived runs and exit")
	fs.StringVar(&opts.trend, "trend", "", "Print the archived history of `COMMAND` and exit")
	fs.StringVar(&opts.since, "since", "", "Only archived runs at/after this timestamp (RFC3339 or YYYY-MM-DD)")
	fs.IntVar(&opts.limit, "limit", defaultRunsLimit, "Maximum number of runs listed by --runs (0 for all)")
	fs.BoolVar(&opts.watch, "watch", false, "Re-print the report whenever the history file changes")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on `ADDR` while watching")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	// Positional FILE may appear between flags.
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return cliOptions{}, err
		}
		if fs.NArg() == 0 {
			break
		}
		if err := input.Set(fs.Arg(0)); err != nil {
			return cliOptions{}, err
		}
		rest = fs.Args()[1:]
	}

	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	if err := validateOptions(opts); err != nil {
		return cliOptions{}, err
	}
	return opts, nil
}

func validateOptions(opts cliOptions) error {
	if opts.set["c"] && opts.count <= 0 {
		return domainErrors.New(domainErrors.CodeValidationError, "invalid -c argument, must be a positive integer")
	}
	if opts.set["b"] && opts.barSize <= 0 {
		return domainErrors.New(domainErrors.CodeValidationError, "invalid -b argument, must be a positive integer")
	}
	if opts.moreThan < 0 {
		return domainErrors.New(domainErrors.CodeValidationError, "invalid -m argument, must be a non-negative integer")
	}
	if opts.limit < 0 {
		return domainErrors.New(domainErrors.CodeValidationError, "invalid --limit argument, must be a non-negative integer")
	}

	modes := 0
	for _, on := range []bool{opts.runs, opts.trend != "", opts.watch || opts.ui} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return domainErrors.New(domainErrors.CodeConflict, "--runs, --trend and --watch/--ui cannot be combined")
	}
	if opts.record && (opts.runs || opts.trend != "") {
		return domainErrors.New(domainErrors.CodeConflict, "--record cannot be combined with --runs or --trend")
	}
	if opts.since != "" && !opts.runs && opts.trend == "" {
		return domainErrors.New(domainErrors.CodeConflict, "--since requires --runs or --trend")
	}
	if opts.ui && opts.outPath != "" {
		return domainErrors.New(domainErrors.CodeConflict, "--out cannot be combined with --ui")
	}
	return nil
}
