package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"pyward/internal/core/config"
)

const (
	ExitClean       = 0
	ExitViolations  = 1
	ExitError       = 2
	ExitInterrupted = 130
)

const usage = `usage: pyward [--verbose] [--exit-zero] <command> [flags] [args]

commands:
  policy   check imports and built-in calls against a policy
  style    run the lexical style checks
  scan     run every check using pyward.toml
  watch    scan, then re-scan files as they change
  history  list recent scan runs
  version  print the version
`

// globalOptions are accepted before the command name and by every command.
type globalOptions struct {
	verbose  bool
	exitZero bool
	noColor  bool
}

func (g *globalOptions) register(fs *flag.FlagSet) {
	fs.BoolVar(&g.verbose, "verbose", g.verbose, "Enable verbose logging")
	fs.BoolVar(&g.exitZero, "exit-zero", g.exitZero, "Exit 0 even when violations are found")
	fs.BoolVar(&g.noColor, "no-color", g.noColor, "Disable coloured console output")
}

// listFlag collects repeated flags; each value may itself be comma-separated.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(value string) error {
	*l = append(*l, config.SplitList([]string{value})...)
	return nil
}

type policyOptions struct {
	allowed      listFlag
	prohibited   listFlag
	disallowCall listFlag
	policyFile   string
	workers      int
	root         string
	logFile      string
}

type styleOptions struct {
	maxLineLength int
	maxFileLines  int
	workers       int
	path          string
	outDir        string
}

type configOptions struct {
	configPath string
	limit      int
	args       []string
}

func newFlagSet(name string, stderr io.Writer, g *globalOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("pyward "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	return fs
}

func parseGlobal(args []string, stderr io.Writer) (globalOptions, []string, error) {
	var g globalOptions
	fs := flag.NewFlagSet("pyward", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return g, nil, err
	}
	return g, fs.Args(), nil
}

func parsePolicyOptions(args []string, stderr io.Writer, g *globalOptions) (policyOptions, error) {
	var opts policyOptions
	fs := newFlagSet("policy", stderr, g)
	fs.Var(&opts.allowed, "allowed", "Allowed module (repeatable, comma-separated)")
	fs.Var(&opts.prohibited, "prohibited", "Prohibited module (repeatable, comma-separated)")
	fs.Var(&opts.disallowCall, "disallow-call", "Additional built-in call to flag (repeatable)")
	fs.StringVar(&opts.policyFile, "policy", "", "Load allowed/prohibited lists from a TOML or YAML file")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent files (default: number of CPUs)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 2 {
		return opts, fmt.Errorf("policy requires <root> <logfile>")
	}
	opts.root = fs.Arg(0)
	opts.logFile = fs.Arg(1)
	return opts, nil
}

func parseStyleOptions(args []string, stderr io.Writer, g *globalOptions) (styleOptions, error) {
	var opts styleOptions
	fs := newFlagSet("style", stderr, g)
	fs.IntVar(&opts.maxLineLength, "max-line-length", 0, "Maximum line length (default 100)")
	fs.IntVar(&opts.maxFileLines, "max-file-lines", 0, "Maximum lines per file (default 400)")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent files (default: number of CPUs)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return opts, fmt.Errorf("style requires <path> [output-dir]")
	}
	opts.path = fs.Arg(0)
	if fs.NArg() == 2 {
		opts.outDir = fs.Arg(1)
	}
	return opts, nil
}

func parseConfigOptions(name string, args []string, stderr io.Writer, g *globalOptions) (configOptions, error) {
	var opts configOptions
	fs := newFlagSet(name, stderr, g)
	fs.StringVar(&opts.configPath, "config", config.DefaultFileName, "Path to config file")
	if name == "history" {
		fs.IntVar(&opts.limit, "limit", 10, "Number of runs to list")
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.args = fs.Args()
	if name == "history" && len(opts.args) > 0 {
		return opts, fmt.Errorf("history takes no positional arguments")
	}
	return opts, nil
}
