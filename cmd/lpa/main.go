// Command lpa detects communities in an undirected edge list with label
// propagation and reports the highest-modularity assignment it finds.
//
//	lpa [flags] <edge-list-uri>
//
// Inputs and outputs may be local paths or s3://bucket/key URIs; a .sz or
// .snappy suffix selects snappy compression. An output of postgres://...
// writes the labels to a table instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-lpa/pkg/config"
	"github.com/dd0wney/cluso-lpa/pkg/edgelist"
)

// errUsage is returned after the usage text has been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "lpa: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// cliFlags holds raw flag values. Only flags set on the command line
// override the configuration file and environment.
type cliFlags struct {
	configPath  string
	output      string
	delimiter   string
	limit       int
	workers     int
	chunkSize   int
	seed        uint64
	noHeader    bool
	strict      bool
	logLevel    string
	metricsAddr string
	textfile    string
	progress    string
	top         int
	baseline    bool
	s3Endpoint  string
	s3Region    string
	s3PathStyle bool
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("lpa", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: lpa [flags] <edge-list-uri>")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.output, "output", "", "Write labels to this file, s3:// object or postgres:// table")
	fs.StringVar(&f.output, "o", "", "Shorthand for -output")
	fs.StringVar(&f.delimiter, "delimiter", "whitespace", "Column delimiter: whitespace, tab or comma")
	fs.StringVar(&f.delimiter, "d", "whitespace", "Shorthand for -delimiter")
	fs.IntVar(&f.limit, "limit", 20, "Maximum number of propagation rounds")
	fs.IntVar(&f.limit, "l", 20, "Shorthand for -limit")
	fs.IntVar(&f.workers, "workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	fs.IntVar(&f.chunkSize, "chunk-size", 0, "Minimum vertices per task (0 = default)")
	fs.Uint64Var(&f.seed, "seed", 0, "Random seed (0 = random per run)")
	fs.BoolVar(&f.noHeader, "no-header", false, "Input has no vertex_count/edge_count header")
	fs.BoolVar(&f.strict, "strict", false, "Abort on the first malformed row")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&f.textfile, "metrics-textfile", "", "Write final metrics to this file")
	fs.StringVar(&f.progress, "progress-addr", "", "Publish round progress on this nanomsg address")
	fs.IntVar(&f.top, "top", 10, "Number of largest communities to report")
	fs.BoolVar(&f.baseline, "baseline", false, "Also report the connected-components partition")
	fs.StringVar(&f.s3Endpoint, "s3-endpoint", "", "Custom S3 endpoint URL")
	fs.StringVar(&f.s3Region, "s3-region", "", "S3 region")
	fs.BoolVar(&f.s3PathStyle, "s3-path-style", false, "Use path-style S3 addressing")
	return fs
}

// parseArgs builds the run configuration: defaults, then the config file,
// then the environment, then explicitly set flags.
func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	var f cliFlags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return nil, errUsage
	}

	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	var flagErr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "output", "o":
			cfg.Output = f.output
		case "delimiter", "d":
			d, err := edgelist.ParseDelimiter(f.delimiter)
			if err != nil {
				flagErr = errors.Join(flagErr, err)
				return
			}
			cfg.Delimiter = d
		case "limit", "l":
			cfg.Engine.RoundLimit = f.limit
		case "workers":
			cfg.Engine.Workers = f.workers
		case "chunk-size":
			cfg.Engine.ChunkSize = f.chunkSize
		case "seed":
			cfg.Engine.Seed = f.seed
		case "no-header":
			cfg.Header = !f.noHeader
		case "strict":
			cfg.Strict = f.strict
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "metrics-addr":
			cfg.Metrics.Addr = f.metricsAddr
		case "metrics-textfile":
			cfg.Metrics.Textfile = f.textfile
		case "progress-addr":
			cfg.Progress.Addr = f.progress
		case "top":
			cfg.Report.Top = f.top
		case "baseline":
			cfg.Report.Baseline = f.baseline
		case "s3-endpoint":
			cfg.S3.Endpoint = f.s3Endpoint
		case "s3-region":
			cfg.S3.Region = f.s3Region
		case "s3-path-style":
			cfg.S3.PathStyle = f.s3PathStyle
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if fs.NArg() == 1 {
		cfg.Input = fs.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
