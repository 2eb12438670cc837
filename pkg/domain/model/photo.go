package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	fallbackPrefix    = "item_"
	fallbackExtension = ".jpg"
)

// FallbackFilename returns the name used for a photo that has no filename.
// index is the zero-based position in the listing.
func FallbackFilename(index int) string {
	return fmt.Sprintf("%s%d%s", fallbackPrefix, index, fallbackExtension)
}

// TargetFilename derives the local file name of the photo at index. Any
// directory part of the service-provided name is dropped so the result
// always stays inside the destination.
func TargetFilename(name string, index int) string {
	name = strings.TrimSpace(name)
	if p := strings.LastIndexAny(name, `/\`); p != -1 {
		name = name[p+1:]
	}
	if name == "" || name == "." || name == ".." {
		return FallbackFilename(index)
	}
	return filepath.Clean(name)
}

// ItemOutcome is the result of processing a single photo
type ItemOutcome string

const (
	ItemDownloaded ItemOutcome = "downloaded"
	ItemSkipped    ItemOutcome = "skipped"
	ItemFailed     ItemOutcome = "failed"
	// ItemPlanned is reported in dry-run mode for photos that would be downloaded
	ItemPlanned ItemOutcome = "planned"
)

// String returns the string representation of ItemOutcome
func (o ItemOutcome) String() string {
	return string(o)
}

// ItemError records a non-fatal failure for one photo
type ItemError struct {
	Index    int
	Filename string
	Err      error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Filename, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}
