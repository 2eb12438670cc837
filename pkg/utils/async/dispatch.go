package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
)

// Dispatch executes handler in a new goroutine and returns a channel that
// receives its result exactly once before being closed.
//
// Behavior:
//   - The handler receives ctx as is, so cancellation reaches the worker
//   - A panic in the handler is recovered, logged with its stack and
//     delivered as an error
//   - Errors returned by the handler are logged at debug level; reporting
//     them to the user is the caller's job
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)
		done <- run(ctx, handler)
	}()

	return done
}

func run(ctx context.Context, handler func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logging.From(ctx).Error("panic in async handler",
				"recover", r,
				"stack", string(stack))
			err = goerr.New("panic in async handler", goerr.V("recover", fmt.Sprint(r)))
		}
	}()

	if err := handler(ctx); err != nil {
		logging.From(ctx).Debug("async handler returned error", "error", err)
		return err
	}
	return nil
}
