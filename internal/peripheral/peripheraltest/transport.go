// Package peripheraltest provides an in-memory peripheral.Transport for
// tests of code built on the peripheral clients.
package peripheraltest

import (
	"sync"

	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
)

// Write is one recorded WriteInts call.
type Write struct {
	Characteristic string
	Values         []int
}

// Transport publishes every characteristic, records writes and keeps
// subscriptions until the test calls Notify. Reads are answered on a new
// goroutine with the value set by SetReadValue.
type Transport struct {
	mu        sync.Mutex
	connected bool
	writes    []Write
	subs      map[uint64]peripheral.Handle
	fns       map[uint64]func([]int)
	readValue []int
	nextID    uint64
}

var _ peripheral.Transport = (*Transport)(nil)

// New returns a connected Transport.
func New() *Transport {
	return &Transport{
		connected: true,
		subs:      make(map[uint64]peripheral.Handle),
		fns:       make(map[uint64]func([]int)),
	}
}

func (t *Transport) WriteInts(service, characteristic string, signed bool, values ...int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, Write{Characteristic: characteristic, Values: append([]int(nil), values...)})
	return nil
}

func (t *Transport) ReadInts(service, characteristic string, signed bool, fn func([]int)) error {
	t.mu.Lock()
	values := append([]int(nil), t.readValue...)
	t.mu.Unlock()
	go fn(values)
	return nil
}

func (t *Transport) Subscribe(service, characteristic string, signed bool, fn func([]int)) (peripheral.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	h := peripheral.Handle{Service: service, Characteristic: characteristic, ID: t.nextID}
	t.subs[h.ID] = h
	t.fns[h.ID] = fn
	return h, nil
}

func (t *Transport) Unsubscribe(h peripheral.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, h.ID)
	delete(t.fns, h.ID)
	return nil
}

func (t *Transport) IsPublished(service, characteristic string) bool { return true }

func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// SetConnected changes the reported link state.
func (t *Transport) SetConnected(connected bool) {
	t.mu.Lock()
	t.connected = connected
	t.mu.Unlock()
}

// SetReadValue sets the values later reads return.
func (t *Transport) SetReadValue(values ...int) {
	t.mu.Lock()
	t.readValue = values
	t.mu.Unlock()
}

// Writes returns a copy of every recorded write.
func (t *Transport) Writes() []Write {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Write(nil), t.writes...)
}

// Subscriptions returns the number of live subscriptions.
func (t *Transport) Subscriptions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Notify delivers values to every subscription on characteristic, on the
// calling goroutine.
func (t *Transport) Notify(characteristic string, values ...int) {
	t.mu.Lock()
	var fns []func([]int)
	for id, h := range t.subs {
		if h.Characteristic == characteristic {
			fns = append(fns, t.fns[id])
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(values)
	}
}

// Address returns a fixed device address.
func (t *Transport) Address() string { return "00:11:22:33:44:55" }

// Close marks the transport disconnected.
func (t *Transport) Close() error {
	t.SetConnected(false)
	return nil
}
