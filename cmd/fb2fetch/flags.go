package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/dgallion1/fb2fetch/internal/config"
)

// ErrUsage marks invalid command line arguments.
var ErrUsage = errors.New("usage error")

// cliFlags holds every command line option. Defaults come from the environment.
type cliFlags struct {
	books          string
	output         string
	outputSet      bool
	workers        int
	timeout        time.Duration
	retries        int
	rate           float64
	userAgent      string
	class          string
	rawHeadings    bool
	paragraphsOnly bool
	quiet          bool
	verbose        bool
	version        bool
}

// parseFlags parses args (without the program name) and returns the flags and
// the positional sources.
func parseFlags(args []string, cfg config.Config, stderr io.Writer) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("fb2fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fb2fetch [flags] [url|file ...]\n\n")
		fmt.Fprintf(stderr, "Without sources the book list file is read.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&f.books, "books", "b", cfg.BooksFile, "YAML book list used when no sources are given")
	fs.StringVarP(&f.output, "output", "o", cfg.OutputDir, "output directory")
	fs.IntVarP(&f.workers, "workers", "w", cfg.WorkerCount, "parallel conversions")
	fs.DurationVar(&f.timeout, "timeout", cfg.FetchTimeout, "per-request fetch timeout")
	fs.IntVar(&f.retries, "retries", cfg.FetchRetries, "fetch attempts per url")
	fs.Float64Var(&f.rate, "rate", cfg.FetchRatePerSec, "requests per second across all urls (0 = unlimited)")
	fs.StringVar(&f.userAgent, "user-agent", cfg.UserAgent, "User-Agent header for fetches")
	fs.StringVar(&f.class, "class", cfg.ContentClass, "CSS class marking book content in HTML pages")
	fs.BoolVar(&f.rawHeadings, "raw-headings", cfg.RawHeadings, "write heading text without escaping")
	fs.BoolVar(&f.paragraphsOnly, "paragraphs-only", cfg.ParagraphsOnly, "drop headings and write paragraphs only")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	f.outputSet = fs.Changed("output")

	switch {
	case f.quiet && f.verbose:
		return nil, nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	case f.workers <= 0:
		return nil, nil, fmt.Errorf("%w: --workers must be positive", ErrUsage)
	case f.retries <= 0:
		return nil, nil, fmt.Errorf("%w: --retries must be positive", ErrUsage)
	case f.rate < 0:
		return nil, nil, fmt.Errorf("%w: --rate must not be negative", ErrUsage)
	case f.class == "":
		return nil, nil, fmt.Errorf("%w: --class must not be empty", ErrUsage)
	}

	return f, fs.Args(), nil
}
