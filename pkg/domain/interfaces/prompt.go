package interfaces

import "context"

// CodePrompter obtains a one-time code from the user. It blocks until the
// user answers.
type CodePrompter interface {
	PromptCode(ctx context.Context) (string, error)
}

// Notifier delivers a message when a run finishes
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
