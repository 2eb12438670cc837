package model

import "github.com/m-mizutani/goerr/v2"

// Sentinels carry an ID so that copies made with Wrap still match errors.Is.

// Input and authentication failures abort a run. They are surfaced to the
// user as blocking errors.
var (
	ErrInput            = goerr.New("apple ID and password are required", goerr.ID("input"))
	ErrAuthFailure      = goerr.New("failed to open iCloud session", goerr.ID("auth_failure"))
	ErrMissingCode      = goerr.New("two-factor code was not provided", goerr.ID("missing_code"))
	ErrInvalidCode      = goerr.New("failed to verify two-factor code", goerr.ID("invalid_code"))
	ErrUntrustedSession = goerr.New("session is not trusted, trust this session in your account settings", goerr.ID("untrusted_session"))
)

// Benign early-exit conditions. A run ending with one of them is not a
// failure.
var (
	ErrNoPhotos         = goerr.New("no photos found in iCloud", goerr.ID("no_photos"))
	ErrNoFolderSelected = goerr.New("no destination folder selected", goerr.ID("no_folder_selected"))
)
