package peripheral

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
)

type write struct {
	Characteristic string
	Values         []int
}

type pendingRead struct {
	characteristic string
	fn             func([]int)
}

// fakeTransport records writes and holds callbacks until the test delivers
// samples, so nothing is ever called back synchronously.
type fakeTransport struct {
	mu          sync.Mutex
	connected   bool
	unpublished map[string]bool
	writes      []write
	reads       []pendingRead
	subs        map[uint64]Handle
	fns         map[uint64]func([]int)
	all         map[uint64]func([]int)
	removed     []Handle
	nextID      uint64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connected:   true,
		unpublished: make(map[string]bool),
		subs:        make(map[uint64]Handle),
		fns:         make(map[uint64]func([]int)),
		all:         make(map[uint64]func([]int)),
	}
}

func (f *fakeTransport) WriteInts(service, characteristic string, signed bool, values ...int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, write{Characteristic: characteristic, Values: append([]int(nil), values...)})
	return nil
}

func (f *fakeTransport) ReadInts(service, characteristic string, signed bool, fn func([]int)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, pendingRead{characteristic: characteristic, fn: fn})
	return nil
}

func (f *fakeTransport) Subscribe(service, characteristic string, signed bool, fn func([]int)) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	h := Handle{Service: service, Characteristic: characteristic, ID: f.nextID}
	f.subs[h.ID] = h
	f.fns[h.ID] = fn
	f.all[h.ID] = fn
	return h, nil
}

func (f *fakeTransport) Unsubscribe(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, h.ID)
	delete(f.fns, h.ID)
	f.removed = append(f.removed, h)
	return nil
}

func (f *fakeTransport) IsPublished(service, characteristic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unpublished[characteristic]
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *fakeTransport) Writes() []write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]write(nil), f.writes...)
}

func (f *fakeTransport) WritesTo(characteristic string) [][]int {
	var out [][]int
	for _, w := range f.Writes() {
		if w.Characteristic == characteristic {
			out = append(out, w.Values)
		}
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	f.writes = nil
	f.mu.Unlock()
}

func (f *fakeTransport) Removed() []Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Handle(nil), f.removed...)
}

func (f *fakeTransport) PendingReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reads)
}

func (f *fakeTransport) Live() []Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Handle
	for _, h := range f.subs {
		out = append(out, h)
	}
	return out
}

// callback returns the function registered for a subscription, even after
// it was removed.
func (f *fakeTransport) callback(h Handle) func([]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all[h.ID]
}

// notify delivers values to every live subscriber on characteristic.
func (f *fakeTransport) notify(characteristic string, values ...int) {
	f.mu.Lock()
	var fns []func([]int)
	for id, h := range f.subs {
		if h.Characteristic == characteristic {
			fns = append(fns, f.fns[id])
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(values)
	}
}

// completeReads answers every pending ReadInts with values.
func (f *fakeTransport) completeReads(values ...int) {
	f.mu.Lock()
	reads := f.reads
	f.reads = nil
	f.mu.Unlock()

	for _, r := range reads {
		r.fn(values)
	}
}

// recordingSink collects what a client reports.
type recordingSink struct {
	mu     sync.Mutex
	errors []Code
	events []any
}

func (s *recordingSink) ReportError(op string, code Code, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, code)
}

func (s *recordingSink) EmitEvent(name string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == EventInputUpdated {
		s.events = append(s.events, payload)
	}
}

func (s *recordingSink) Errors() []Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Code(nil), s.errors...)
}

func (s *recordingSink) Events() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.events...)
}

// MockTransport is a testify mock of Transport.
type MockTransport struct {
	mock.Mock
}

func NewMockTransport(t *testing.T) *MockTransport {
	m := &MockTransport{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransport) WriteInts(service, characteristic string, signed bool, values ...int) error {
	args := m.Called(service, characteristic, signed, values)
	return args.Error(0)
}

func (m *MockTransport) ReadInts(service, characteristic string, signed bool, fn func([]int)) error {
	args := m.Called(service, characteristic, signed, fn)
	return args.Error(0)
}

func (m *MockTransport) Subscribe(service, characteristic string, signed bool, fn func([]int)) (Handle, error) {
	args := m.Called(service, characteristic, signed, fn)
	return args.Get(0).(Handle), args.Error(1)
}

func (m *MockTransport) Unsubscribe(h Handle) error {
	args := m.Called(h)
	return args.Error(0)
}

func (m *MockTransport) IsPublished(service, characteristic string) bool {
	args := m.Called(service, characteristic)
	return args.Bool(0)
}

func (m *MockTransport) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}
