package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
)

type gate struct {
	service  interfaces.PhotoService
	prompter interfaces.CodePrompter
}

// NewGate creates an AuthUseCase that signs in through service and asks
// prompter for a one-time code when the account is protected by two-factor
// authentication
func NewGate(service interfaces.PhotoService, prompter interfaces.CodePrompter) interfaces.AuthUseCase {
	return &gate{
		service:  service,
		prompter: prompter,
	}
}

// Authenticate opens a session. It never retries; call it again to retry.
func (uc *gate) Authenticate(ctx context.Context, cred model.Credential) (interfaces.Session, error) {
	logger := logging.From(ctx)

	if err := cred.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Signing in to iCloud", "apple_id", cred.AppleID)

	login, err := uc.service.Login(ctx, cred.AppleID, cred.Password)
	if err != nil {
		logger.Debug("Sign-in failed", "error", err, "apple_id", cred.AppleID)
		return nil, model.ErrAuthFailure.Wrap(err, goerr.V("apple_id", cred.AppleID))
	}

	if login.RequiresSecondFactor() {
		logger.Info("Two-factor authentication required")
		if err := uc.completeSecondFactor(ctx, login); err != nil {
			return nil, err
		}
	}

	logger.Info("Signed in to iCloud", "apple_id", cred.AppleID)
	return login.Session(), nil
}

func (uc *gate) completeSecondFactor(ctx context.Context, login interfaces.Login) error {
	logger := logging.From(ctx)

	if uc.prompter == nil {
		return model.ErrMissingCode
	}

	code, err := uc.prompter.PromptCode(ctx)
	if err != nil {
		return model.ErrMissingCode.Wrap(err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return model.ErrMissingCode
	}

	accepted, err := login.ValidateCode(ctx, code)
	if err != nil {
		logger.Debug("Two-factor validation failed", "error", err, "code_accepted", accepted)
		if accepted {
			return model.ErrUntrustedSession.Wrap(err)
		}
		return model.ErrInvalidCode.Wrap(err)
	}
	if !accepted {
		return model.ErrInvalidCode
	}

	if !login.IsTrusted() {
		return model.ErrUntrustedSession
	}

	return nil
}
