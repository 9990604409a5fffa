package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

// calls records the order in which gateway methods were invoked.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	c.log = append(c.log, name)
	c.mu.Unlock()
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

type fakeSink struct {
	calls *calls

	groups  map[string]bool
	streams map[string]bool

	groupErr  error
	streamErr error
	// failAt makes the append with this 1-based index fail.
	failAt int

	inFlight    int
	maxInFlight int
	attempts    int
	appended    []domain.LogEvent
}

func newFakeSink(c *calls) *fakeSink {
	return &fakeSink{
		calls:   c,
		groups:  map[string]bool{},
		streams: map[string]bool{},
	}
}

func (s *fakeSink) EnsureLogGroup(_ context.Context, name string) (domain.ProvisionResult, error) {
	s.calls.add("EnsureLogGroup")
	if s.groupErr != nil {
		return 0, s.groupErr
	}
	if s.groups[name] {
		return domain.AlreadyExisted, nil
	}
	s.groups[name] = true
	return domain.Created, nil
}

func (s *fakeSink) EnsureLogStream(_ context.Context, group, name string) (domain.ProvisionResult, error) {
	s.calls.add("EnsureLogStream")
	if s.streamErr != nil {
		return 0, s.streamErr
	}
	if !s.groups[group] {
		return 0, domain.BackendError("unexpected error on AWS host side", errors.New("group does not exist"))
	}
	key := group + "/" + name
	if s.streams[key] {
		return domain.AlreadyExisted, nil
	}
	s.streams[key] = true
	return domain.Created, nil
}

func (s *fakeSink) AppendLogEvent(_ context.Context, target domain.LogSinkTarget, event domain.LogEvent) error {
	s.calls.add("AppendLogEvent")
	s.inFlight++
	defer func() { s.inFlight-- }()
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}

	if !s.streams[target.String()] {
		return domain.BackendError("unexpected error on AWS host side", errors.New("stream does not exist"))
	}

	s.attempts++
	if s.failAt > 0 && s.attempts == s.failAt {
		return domain.BackendError("unexpected error on AWS host side", errors.New("throttled"))
	}
	s.appended = append(s.appended, event)
	return nil
}

func (s *fakeSink) messages() []string {
	out := make([]string, 0, len(s.appended))
	for _, e := range s.appended {
		out = append(out, e.Message)
	}
	return out
}

// sliceStream is a finite LineStream that counts how far it was consumed.
type sliceStream struct {
	lines  []string
	pos    int
	err    error
	closed bool
}

func newSliceStream(lines ...string) *sliceStream {
	return &sliceStream{lines: lines}
}

func (s *sliceStream) Next() bool {
	if s.pos >= len(s.lines) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Line() string { return s.lines[s.pos-1] }

func (s *sliceStream) Err() error {
	if s.pos < len(s.lines) {
		return nil
	}
	return s.err
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

type fakeRuntime struct {
	calls   *calls
	pullErr error
	runErr  error
	stream  *sliceStream
	spec    domain.RunSpec
}

func (r *fakeRuntime) PullImage(_ context.Context, _ string) error {
	r.calls.add("PullImage")
	return r.pullErr
}

func (r *fakeRuntime) RunContainer(_ context.Context, spec domain.RunSpec) (*domain.ContainerHandle, error) {
	r.calls.add("RunContainer")
	if r.runErr != nil {
		return nil, r.runErr
	}
	r.spec = spec
	return &domain.ContainerHandle{ID: "c0ffee", Output: r.stream}, nil
}

func (r *fakeRuntime) Close() error { return nil }

type fakeIdentity struct {
	calls *calls
	err   error
}

func (i *fakeIdentity) VerifyCredentials(context.Context) (string, error) {
	i.calls.add("VerifyCredentials")
	if i.err != nil {
		return "", i.err
	}
	return "123456789012", nil
}

type fakeBuilder struct {
	calls *calls
	err   error
	repo  string
}

func (b *fakeBuilder) BuildImage(_ context.Context, repoURL string, imageName string) (string, error) {
	b.calls.add("BuildImage")
	if b.err != nil {
		return "", b.err
	}
	b.repo = repoURL
	return imageName, nil
}
