package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/domain/types"
	"github.com/m-mizutani/icloudpull/pkg/utils/async"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
)

const (
	statusConnecting = "Connecting to iCloud..."
	statusFetching   = "Fetching iCloud Photos..."
	statusCompleted  = "Download completed."

	eventBufferSize = 64
)

// Runner executes authentication followed by the download on a single
// background worker and streams progress as events
type Runner struct {
	auth     interfaces.AuthUseCase
	download interfaces.DownloadUseCase
	notifier interfaces.Notifier
}

// RunnerOption is a functional option for Runner
type RunnerOption func(*Runner)

// WithNotifier sends a summary to notifier when a run finishes
func WithNotifier(notifier interfaces.Notifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = notifier
	}
}

// NewRunner creates a new Runner
func NewRunner(auth interfaces.AuthUseCase, download interfaces.DownloadUseCase, opts ...RunnerOption) *Runner {
	r := &Runner{
		auth:     auth,
		download: download,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the worker. The returned channel delivers events in order
// and is closed after a terminal event (EventDone or EventFailed). The
// caller must drain it.
func (r *Runner) Start(ctx context.Context, cred model.Credential, dest interfaces.Destination) <-chan model.Event {
	events := make(chan model.Event, eventBufferSize)
	emit := func(ev model.Event) {
		events <- ev
	}

	go func() {
		defer close(events)

		var report *model.Report
		err := <-async.Dispatch(ctx, func(ctx context.Context) error {
			var err error
			report, err = r.run(ctx, cred, dest, emit)
			return err
		})

		final := model.Event{Kind: model.EventDone, Message: statusCompleted, Report: report}
		if err != nil {
			final = model.Event{Kind: model.EventFailed, Message: err.Error(), Err: err, Report: report}
		}

		r.notify(ctx, final)
		emit(final)
	}()

	return events
}

func (r *Runner) run(ctx context.Context, cred model.Credential, dest interfaces.Destination, emit interfaces.ProgressFunc) (*model.Report, error) {
	emit(model.Event{Kind: model.EventStatus, Message: statusConnecting})

	session, err := r.auth.Authenticate(ctx, cred)
	if err != nil {
		return nil, err
	}

	emit(model.Event{Kind: model.EventStatus, Message: statusFetching})
	return r.download.DownloadAll(ctx, session, dest, emit)
}

func (r *Runner) notify(ctx context.Context, final model.Event) {
	if r.notifier == nil {
		return
	}

	var msg string
	switch {
	case final.Kind == model.EventDone && final.Report != nil:
		msg = fmt.Sprintf("%s: %s (run %s)", types.AppName, final.Report.Summary(), final.Report.RunID)
	default:
		msg = fmt.Sprintf("%s: run failed: %s", types.AppName, final.Message)
	}

	if err := r.notifier.Notify(ctx, msg); err != nil {
		logging.From(ctx).Warn("Failed to send notification", "error", err)
	}
}
