package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"

	"github.com/dgallion1/fb2fetch/internal/fb2"
	"github.com/dgallion1/fb2fetch/internal/fetch"
	"github.com/dgallion1/fb2fetch/internal/library"
	"github.com/dgallion1/fb2fetch/internal/parser"
)

// Sentinel errors classifying where a conversion failed.
var (
	ErrFetch   = errors.New("fetch failed")
	ErrParse   = errors.New("parse failed")
	ErrExtract = errors.New("extraction failed")
	ErrWrite   = errors.New("write failed")
	ErrNoInput = errors.New("job has neither url nor file data")
)

// Fetcher downloads a page.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Page, error)
}

var _ Fetcher = (*fetch.Client)(nil)

// Options controls how sources are parsed and extracted.
type Options struct {
	Extract           fb2.Options
	ContentClass      string
	FallbackPdftotext bool
}

// Converter runs one job end to end: fetch, parse, extract, serialize, save.
// It holds no per-job state and may be shared by concurrent workers.
type Converter struct {
	fetcher Fetcher
	store   *library.Store
	log     *slog.Logger
	opts    Options
}

func NewConverter(fetcher Fetcher, store *library.Store, log *slog.Logger, opts Options) *Converter {
	return &Converter{
		fetcher: fetcher,
		store:   store,
		log:     log,
		opts:    opts,
	}
}

// Convert processes job and records progress on it. The returned error is also
// added to the job.
func (c *Converter) Convert(ctx context.Context, job *Job) error {
	log := c.log.With("job_id", job.ID, "source", job.Source())

	fail := func(phase string, err error) error {
		log.Error("conversion failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phase)
		return err
	}

	// Phase 1: Fetch
	data := job.FileData()
	filename := job.Filename
	contentType := ""
	switch {
	case job.URL != "":
		job.SetStatus(StatusFetching, "fetching")
		page, err := c.fetcher.Get(ctx, job.URL)
		if err != nil {
			return fail("fetching", fmt.Errorf("%w: %w", ErrFetch, err))
		}
		log.Info("fetched page", "bytes", len(page.Body), "duration_ms", page.Duration.Milliseconds())
		job.SetBytesFetched(int64(len(page.Body)))
		data = page.Body
		contentType = page.ContentType
		filename = pageFilename(job.URL)
	case data == nil:
		return fail("queued", ErrNoInput)
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(filename, parser.Options{
		ContentClass:      c.opts.ContentClass,
		ContentType:       contentType,
		FallbackPdftotext: c.opts.FallbackPdftotext,
	})
	if err != nil {
		return fail("parsing", fmt.Errorf("%w: %w", ErrParse, err))
	}
	src, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return fail("parsing", fmt.Errorf("%w: %w", ErrParse, err))
	}
	job.releaseFileData()
	if job.Title != "" {
		src.Title = job.Title
	}

	// Phase 3: Extract
	job.SetStatus(StatusExtracting, "extracting")
	special := fb2.CountSpecial(src.Nodes)
	log.Info("special symbols count", "count", special, "nodes", len(src.Nodes))

	b, err := fb2.ExtractBook(src, c.opts.Extract)
	if err != nil {
		return fail("extracting", fmt.Errorf("%w: %w", ErrExtract, err))
	}
	job.SetExtracted(len(src.Nodes), len(b.Toc), len(b.Body), special)

	// Phase 4: Write
	job.SetStatus(StatusWriting, "writing")
	outPath, err := c.store.Save(b.Title, []byte(fb2.SerializeBook(b)))
	if err != nil {
		return fail("writing", fmt.Errorf("%w: %w", ErrWrite, err))
	}
	job.SetResult(b.Title, outPath)
	job.SetStatus(StatusCompleted, "done")
	log.Info("saved book", "title", b.Title, "path", outPath, "chapters", len(b.Toc))
	return nil
}

// pageFilename picks a parser filename for a fetched URL. Reader pages usually have
// no extension, so anything not recognised is treated as HTML.
func pageFilename(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); parser.IsSupportedExtension(base) {
			return base
		}
	}
	return "page.html"
}
