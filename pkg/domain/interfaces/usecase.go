package interfaces

import (
	"context"

	"github.com/m-mizutani/icloudpull/pkg/domain/model"
)

// ProgressFunc receives events emitted while photos are processed
type ProgressFunc func(model.Event)

// AuthUseCase opens an authenticated session
type AuthUseCase interface {
	// Authenticate validates the credential, signs in and completes a second
	// factor challenge when the service asks for one
	Authenticate(ctx context.Context, cred model.Credential) (Session, error)
}

// DownloadUseCase downloads the whole library of a session
type DownloadUseCase interface {
	// DownloadAll writes every photo that does not exist yet in dest
	DownloadAll(ctx context.Context, session Session, dest Destination, progress ProgressFunc) (*model.Report, error)
}
