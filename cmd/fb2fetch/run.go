package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dgallion1/fb2fetch/internal/config"
	"github.com/dgallion1/fb2fetch/internal/fb2"
	"github.com/dgallion1/fb2fetch/internal/fetch"
	"github.com/dgallion1/fb2fetch/internal/library"
	"github.com/dgallion1/fb2fetch/internal/pipeline"
)

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	flags, sources, err := parseFlags(args, cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}
	if flags.version {
		fmt.Fprintf(stdout, "fb2fetch %s\n", Version)
		return ExitSuccess
	}

	setMaxProcs(flags.verbose, stderr)
	log := newLogger(flags, stderr)

	jobs, outputDir, err := buildJobs(sources, flags)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}

	client := fetch.NewClient(fetch.Config{
		Timeout:      flags.timeout,
		Retries:      flags.retries,
		RatePerSec:   flags.rate,
		UserAgent:    flags.userAgent,
		MaxBodyBytes: cfg.MaxPageBytes,
	}, log)
	defer client.Close()

	conv := pipeline.NewConverter(client, library.NewStore(outputDir), log, pipeline.Options{
		Extract: fb2.Options{
			RawHeadings:    flags.rawHeadings,
			ParagraphsOnly: flags.paragraphsOnly,
		},
		ContentClass:      flags.class,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	})

	log.Debug("starting conversion", "jobs", len(jobs), "workers", flags.workers, "output", outputDir)
	results := pipeline.RunBatch(ctx, conv, jobs, flags.workers)

	err = report(results, flags.quiet, stdout, stderr)
	return exitCodeFor(err)
}

func newLogger(flags *cliFlags, stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case flags.quiet:
		level = slog.LevelError
	case flags.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// buildJobs turns positional sources into jobs. With no sources the book list
// is loaded instead, and its output directory applies unless -o was given.
func buildJobs(sources []string, flags *cliFlags) ([]*pipeline.Job, string, error) {
	outputDir := flags.output
	if len(sources) == 0 {
		list, err := config.LoadBookList(flags.books)
		if err != nil {
			return nil, "", err
		}
		if list.Output != "" && !flags.outputSet {
			outputDir = list.Output
		}
		var jobs []*pipeline.Job
		for _, e := range list.Entries() {
			jobs = append(jobs, pipeline.NewURLJob(e.URL, e.Title))
		}
		return jobs, outputDir, nil
	}

	jobs := make([]*pipeline.Job, 0, len(sources))
	for _, src := range sources {
		job, err := sourceJob(src)
		if err != nil {
			return nil, "", err
		}
		jobs = append(jobs, job)
	}
	return jobs, outputDir, nil
}

// sourceJob classifies one argument: http(s) URLs are fetched, anything else is
// read as a local document.
func sourceJob(src string) (*pipeline.Job, error) {
	if isURL(src) {
		return pipeline.NewURLJob(src, ""), nil
	}
	data, err := os.ReadFile(src) // #nosec G304 -- user-provided input file
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return pipeline.NewFileJob(filepath.Base(src), data, ""), nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// report prints one line per result and returns the joined failures.
func report(results []pipeline.Result, quiet bool, stdout, stderr io.Writer) error {
	var errs []error
	saved := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "failed %s: %v\n", r.Job.Source(), r.Err)
			errs = append(errs, r.Err)
			continue
		}
		saved++
		if !quiet {
			fmt.Fprintf(stdout, "saved as '%s'\n", filepath.Base(r.Job.Snapshot().OutputPath))
		}
	}
	if !quiet && len(results) > 1 {
		fmt.Fprintf(stdout, "%d of %d books saved\n", saved, len(results))
	}
	return errors.Join(errs...)
}
