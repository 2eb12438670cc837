package interfaces

import (
	"context"
	"io"
)

// Destination is where downloaded photos are written
type Destination interface {
	// String returns a human readable location, e.g. a directory path or gs:// URL
	String() string

	// Validate checks that the destination exists and is writable
	Validate(ctx context.Context) error

	// Exists reports whether an entry with the name is already present
	Exists(ctx context.Context, name string) (bool, error)

	// Write stores r under name. It must fail rather than overwrite an
	// existing entry.
	Write(ctx context.Context, name string, r io.Reader) (int64, error)
}
