package main

import (
	"errors"
	"os"

	"github.com/dgallion1/fb2fetch/internal/config"
	"github.com/dgallion1/fb2fetch/internal/fb2"
	"github.com/dgallion1/fb2fetch/internal/fetch"
	"github.com/dgallion1/fb2fetch/internal/pipeline"
)

// Exit codes for the fb2fetch CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every source converted
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, book list, or input document
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitFetch   = 4 // Network or HTTP errors
)

// exitCodeFor returns the exit code for an error. Joined errors resolve to the
// first matching category in the order below.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Fetch errors (exit 4)
	var statusErr *fetch.StatusError
	if errors.Is(err, pipeline.ErrFetch) ||
		errors.As(err, &statusErr) {
		return ExitFetch
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, config.ErrBookListNotFound) ||
		errors.Is(err, pipeline.ErrWrite) ||
		errors.Is(err, pipeline.ErrNoInput) {
		return ExitIO
	}

	// Usage and input errors (exit 2)
	var malformed *fb2.MalformedInputError
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrBookListParse) ||
		errors.Is(err, config.ErrBookListEmpty) ||
		errors.Is(err, pipeline.ErrParse) ||
		errors.Is(err, pipeline.ErrExtract) ||
		errors.As(err, &malformed) {
		return ExitUsage
	}

	return ExitGeneral
}
