package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/domain/types"
)

// mockPhoto is a photo record with fixed content
type mockPhoto struct {
	filename    string
	content     string
	downloadErr error
	downloads   int
}

func (p *mockPhoto) Filename() string {
	return p.filename
}

func (p *mockPhoto) Download(ctx context.Context) (io.ReadCloser, error) {
	p.downloads++
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	return io.NopCloser(strings.NewReader(p.content)), nil
}

// mockSession lists a fixed set of photos
type mockSession struct {
	photos  []interfaces.Photo
	listErr error
}

func (s *mockSession) Photos(ctx context.Context) ([]interfaces.Photo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.photos, nil
}

func newSession(photos ...*mockPhoto) *mockSession {
	s := &mockSession{}
	for _, p := range photos {
		s.photos = append(s.photos, p)
	}
	return s
}

// mockLogin is a configurable login result
type mockLogin struct {
	requires2FA  bool
	validateFunc func(ctx context.Context, code string) (bool, error)
	trusted      bool
	session      interfaces.Session
	codes        []string
}

func (l *mockLogin) RequiresSecondFactor() bool {
	return l.requires2FA
}

func (l *mockLogin) ValidateCode(ctx context.Context, code string) (bool, error) {
	l.codes = append(l.codes, code)
	if l.validateFunc != nil {
		return l.validateFunc(ctx, code)
	}
	return true, nil
}

func (l *mockLogin) IsTrusted() bool {
	return l.trusted
}

func (l *mockLogin) Session() interfaces.Session {
	return l.session
}

// mockService records Login calls
type mockService struct {
	loginFunc func(ctx context.Context, appleID string, password types.Secret) (interfaces.Login, error)
	calls     int
}

func (s *mockService) Login(ctx context.Context, appleID string, password types.Secret) (interfaces.Login, error) {
	s.calls++
	if s.loginFunc != nil {
		return s.loginFunc(ctx, appleID, password)
	}
	return nil, errors.New("mock not configured")
}

// mockPrompter answers with a fixed code
type mockPrompter struct {
	code  string
	err   error
	calls int
}

func (p *mockPrompter) PromptCode(ctx context.Context) (string, error) {
	p.calls++
	return p.code, p.err
}

// memDest is an in-memory destination
type memDest struct {
	mu          sync.Mutex
	files       map[string][]byte
	writes      int
	validateErr error
	writeErr    map[string]error
}

func newMemDest(existing ...string) *memDest {
	d := &memDest{files: map[string][]byte{}, writeErr: map[string]error{}}
	for _, name := range existing {
		d.files[name] = []byte("existing")
	}
	return d
}

func (d *memDest) String() string {
	return "memory"
}

func (d *memDest) Validate(ctx context.Context) error {
	return d.validateErr
}

func (d *memDest) Exists(ctx context.Context, name string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[name]
	return ok, nil
}

func (d *memDest) Write(ctx context.Context, name string, r io.Reader) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeErr[name]; err != nil {
		return 0, err
	}
	if _, ok := d.files[name]; ok {
		return 0, errors.New("file exists")
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return n, err
	}
	d.files[name] = buf.Bytes()
	d.writes++
	return n, nil
}

// mockNotifier records messages
type mockNotifier struct {
	messages []string
	err      error
}

func (n *mockNotifier) Notify(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}
