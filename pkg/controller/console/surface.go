package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/domain/types"
	"golang.org/x/term"
)

const codePromptLabel = "Enter the code you received on your devices: "

type promptRequest struct {
	label string
	reply chan promptReply
}

type promptReply struct {
	value string
	err   error
}

type lineResult struct {
	line string
	err  error
}

// Surface is the terminal front end of a run. Consume is its single
// consumer loop: it renders worker events and answers one-time code prompts,
// so the terminal is only ever written from one goroutine.
type Surface struct {
	in      io.Reader
	reader  *bufio.Reader
	out     io.Writer
	prompts chan promptRequest

	// pending holds a read that was abandoned by a cancelled prompt. The
	// next read takes its result so no input line is lost.
	pending chan lineResult

	status  *color.Color
	success *color.Color
	skipped *color.Color
	planned *color.Color
	failure *color.Color
	title   *color.Color
}

// Option is a functional option for Surface
type Option func(*Surface)

// WithColor forces colored output on or off
func WithColor(enabled bool) Option {
	return func(s *Surface) {
		for _, c := range s.colors() {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewSurface creates a Surface reading answers from in and rendering to out
func NewSurface(in io.Reader, out io.Writer, opts ...Option) *Surface {
	s := &Surface{
		in:      in,
		reader:  bufio.NewReader(in),
		out:     out,
		prompts: make(chan promptRequest),
		status:  color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		skipped: color.New(color.FgYellow),
		planned: color.New(color.FgBlue),
		failure: color.New(color.FgRed),
		title:   color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Surface) colors() []*color.Color {
	return []*color.Color{s.status, s.success, s.skipped, s.planned, s.failure, s.title}
}

// PromptCode implements interfaces.CodePrompter. It is called by the worker
// and blocks until Consume has read the answer.
func (s *Surface) PromptCode(ctx context.Context) (string, error) {
	req := promptRequest{label: codePromptLabel, reply: make(chan promptReply, 1)}

	select {
	case s.prompts <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Consume renders events until the channel is closed and returns the report
// and error carried by the terminal event. Cancelling ctx aborts a pending
// prompt; the loop still drains events until the worker closes the channel.
func (s *Surface) Consume(ctx context.Context, events <-chan model.Event) (*model.Report, error) {
	var (
		report *model.Report
		runErr error
	)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return report, runErr
			}
			s.render(ev)
			if ev.IsTerminal() {
				report, runErr = ev.Report, ev.Err
			}

		case req := <-s.prompts:
			value, err := s.ReadLine(ctx, req.label)
			if err != nil {
				fmt.Fprintln(s.out)
			}
			req.reply <- promptReply{value: value, err: err}
		}
	}
}

func (s *Surface) render(ev model.Event) {
	switch ev.Kind {
	case model.EventStatus:
		s.status.Fprintf(s.out, "» %s\n", ev.Message)

	case model.EventStart:
		fmt.Fprintf(s.out, "Found %d photos\n", ev.Total)

	case model.EventItem:
		s.renderItem(ev)

	case model.EventDone:
		s.renderDone(ev)

	case model.EventFailed:
		s.renderFailure(ev.Err)
	}
}

func (s *Surface) renderItem(ev model.Event) {
	width := len(fmt.Sprint(ev.Total))
	progress := fmt.Sprintf("[%*d/%d]", width, ev.Processed(), ev.Total)

	switch ev.Outcome {
	case model.ItemDownloaded:
		s.success.Fprintf(s.out, "%s Downloaded %s\n", progress, ev.Filename)
	case model.ItemSkipped:
		s.skipped.Fprintf(s.out, "%s Skipped %s (already exists)\n", progress, ev.Filename)
	case model.ItemPlanned:
		s.planned.Fprintf(s.out, "%s Would download %s\n", progress, ev.Filename)
	default:
		s.failure.Fprintf(s.out, "%s Error downloading %s: %v\n", progress, ev.Filename, ev.Err)
	}
}

func (s *Surface) renderDone(ev model.Event) {
	s.status.Fprintf(s.out, "» %s\n", ev.Message)
	if ev.Report == nil {
		return
	}

	fmt.Fprintln(s.out, ev.Report.Summary())
	if ev.Report.Planned > 0 {
		fmt.Fprintf(s.out, "%d photos would be downloaded\n", ev.Report.Planned)
	}
	for _, itemErr := range ev.Report.Errors {
		s.failure.Fprintf(s.out, "  - %s: %v\n", itemErr.Filename, itemErr.Err)
	}
}

func (s *Surface) renderFailure(err error) {
	if IsBenign(err) {
		s.skipped.Fprintf(s.out, "» %s. Exiting...\n", errorMessage(err))
		return
	}

	s.title.Fprintf(s.out, "%s\n", ErrorTitle(err))
	s.failure.Fprintf(s.out, "  %s\n", errorMessage(err))
}

// errorMessage returns the user facing message of err. Sentinel messages are
// preferred over the wrapped chain.
func errorMessage(err error) string {
	for _, sentinel := range []error{
		model.ErrInput,
		model.ErrMissingCode,
		model.ErrInvalidCode,
		model.ErrUntrustedSession,
		model.ErrNoFolderSelected,
		model.ErrNoPhotos,
	} {
		if errors.Is(err, sentinel) {
			return capitalize(sentinel.Error())
		}
	}
	if errors.Is(err, model.ErrAuthFailure) {
		return "iCloud connection failed: " + err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ErrorTitle classifies a run failure for display
func ErrorTitle(err error) string {
	switch {
	case errors.Is(err, model.ErrInput):
		return "Input Error"
	case errors.Is(err, model.ErrMissingCode), errors.Is(err, model.ErrInvalidCode):
		return "Two-Factor Authentication Error"
	case errors.Is(err, model.ErrUntrustedSession):
		return "Untrusted Session"
	case errors.Is(err, model.ErrAuthFailure):
		return "Connection Error"
	default:
		return "Error"
	}
}

// IsBenign reports whether err is an early exit that is not a failure
func IsBenign(err error) bool {
	return errors.Is(err, model.ErrNoFolderSelected) || errors.Is(err, model.ErrNoPhotos)
}

// ReadLine prints label and reads one line of input. It returns when ctx is
// cancelled even if no line arrives. It must not be called while Consume is
// running.
func (s *Surface) ReadLine(ctx context.Context, label string) (string, error) {
	fmt.Fprint(s.out, label)
	return s.readLine(ctx)
}

func (s *Surface) readLine(ctx context.Context) (string, error) {
	if s.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := s.reader.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		s.pending = ch
	}

	select {
	case r := <-s.pending:
		s.pending = nil
		if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
			return "", goerr.Wrap(r.err, "failed to read input")
		}
		return strings.TrimRight(r.line, "\r\n"), nil

	case <-ctx.Done():
		return "", goerr.Wrap(ctx.Err(), "input cancelled")
	}
}

// ReadSecret prints label and reads a secret without echo when the input is
// a terminal. The terminal state is restored when ctx is cancelled. It must
// not be called while Consume is running.
func (s *Surface) ReadSecret(ctx context.Context, label string) (types.Secret, error) {
	f, ok := s.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		line, err := s.ReadLine(ctx, label)
		return types.Secret(line), err
	}

	fd := int(f.Fd())
	state, err := term.GetState(fd)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get terminal state")
	}

	fmt.Fprint(s.out, label)
	ch := make(chan lineResult, 1)
	go func() {
		raw, err := term.ReadPassword(fd)
		ch <- lineResult{line: string(raw), err: err}
	}()

	select {
	case r := <-ch:
		fmt.Fprintln(s.out)
		if r.err != nil {
			return "", goerr.Wrap(r.err, "failed to read secret")
		}
		return types.Secret(r.line), nil

	case <-ctx.Done():
		_ = term.Restore(fd, state)
		fmt.Fprintln(s.out)
		return "", goerr.Wrap(ctx.Err(), "input cancelled")
	}
}
