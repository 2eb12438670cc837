package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/icloudpull/pkg/domain/types"
)

// PhotoService opens sessions with the photo account service
type PhotoService interface {
	// Login signs in with the given identity. The returned Login may still
	// require a second factor before its Session can be used.
	Login(ctx context.Context, appleID string, password types.Secret) (Login, error)
}

// Login is an in-progress authentication with the photo account service
type Login interface {
	// RequiresSecondFactor reports whether a one-time code must be validated
	RequiresSecondFactor() bool

	// ValidateCode submits a one-time code. It returns false when the service
	// rejects the code. When the code is accepted but establishing trust
	// afterwards fails, it returns true together with the error.
	ValidateCode(ctx context.Context, code string) (bool, error)

	// IsTrusted reports whether the service trusts the current session
	IsTrusted() bool

	// Session returns the authenticated session handle
	Session() Session
}

// Session is an opaque, authenticated handle to the photo library
type Session interface {
	// Photos lists every photo of the library in service order
	Photos(ctx context.Context) ([]Photo, error)
}

// Photo is a read-only photo record provided by the service
type Photo interface {
	// Filename returns the original file name, or empty when unknown
	Filename() string

	// Download opens the original content of the photo
	Download(ctx context.Context) (io.ReadCloser, error)
}
