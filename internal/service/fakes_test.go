package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/stripe/stripetest"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
)

var (
	errDown     = domain.NewProviderError("test", "connection reset", true, nil)
	errRejected = domain.NewProviderError("test", "Invalid email address", false, nil)
)

type publishedEvent struct {
	Type    string
	Key     string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Type: eventType, Key: key, Payload: payload})
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) CaptureError(err error, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type countingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	err      error
}

func (l *countingLocker) Lock(_ context.Context, email string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, email)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
	}, nil
}

// failingStore хранилище, отказывающее на каждую операцию
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) SaveBaseline(context.Context, domain.BaselineRequest) error { return errStoreDown }
func (failingStore) CountQueuedBaselines(context.Context) (int, error)         { return 0, errStoreDown }
func (failingStore) GetBaseline(context.Context, string) (domain.BaselineRequest, error) {
	return domain.BaselineRequest{}, errStoreDown
}
func (failingStore) SaveRescan(context.Context, domain.RescanRequest) error { return errStoreDown }

func newTestIdentity(p *stripetest.Provider) IdentityService {
	return NewIdentityService(p, nil, nil, logger.NewNop())
}
