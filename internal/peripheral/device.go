package peripheral

import (
	"sync"
	"time"

	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/pins"
)

// Config holds construction options shared by all clients. Zero values pick
// the client's defaults.
type Config struct {
	// Pin is the initial pin label.
	Pin string

	// Interval is the sync period.
	Interval time.Duration

	// Sink receives errors and events. Defaults to a LogSink.
	Sink Sink
}

// device is the state and plumbing shared by every client. All fields below
// mu are guarded by it; methods ending in Locked expect it held.
type device struct {
	name  string
	sink  Sink
	sched *Scheduler

	mu        sync.Mutex
	transport Transport
	pin       string
	mode      Mode
	addr      pins.Address
	resolved  bool

	// gen changes whenever the identifiers or the transport change, which
	// invalidates every outstanding read and subscription callback.
	gen uint64

	sub     Handle
	subLive bool
	subSeq  uint64
}

func (d *device) init(name string, t Transport, mode Mode, cfg Config, tick func()) {
	d.name = name
	d.transport = t
	d.mode = mode
	d.sink = cfg.Sink
	if d.sink == nil {
		d.sink = LogSink{Source: name}
	}
	d.sched = NewScheduler(cfg.Interval, tick)
}

// IsSupported reports whether the board is connected and advertises both
// characteristics for the current pin.
func (d *device) IsSupported() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supportedLocked()
}

func (d *device) supportedLocked() bool {
	t := d.transport
	return d.mode != ModeUnset &&
		d.pin != "" &&
		t != nil &&
		t.IsConnected() &&
		d.resolved &&
		t.IsPublished(d.addr.Service, d.addr.Mode) &&
		t.IsPublished(d.addr.Service, d.addr.Data)
}

// Pin returns the current pin label.
func (d *device) Pin() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pin
}

// Address returns the characteristics resolved for the current pin.
func (d *device) Address() pins.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// SetTransport swaps the link used to reach the board. Any live subscription
// on the previous transport is dropped.
func (d *device) SetTransport(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.unsubscribeLocked()
	d.transport = t
	d.gen++
}

// Close stops the sync loop and drops any live subscription. Close is
// idempotent.
func (d *device) Close() {
	d.sched.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.unsubscribeLocked()
	d.gen++
}

// Done is closed once Close has been called and the last sync tick finished.
func (d *device) Done() <-chan struct{} {
	return d.sched.Done()
}

func (d *device) reject(op string, code Code, msg string) error {
	d.sink.ReportError(op, code, msg)
	return &Error{Op: op, Code: code, Msg: msg}
}

// checkPin validates a label without touching state.
func (d *device) checkPin(label string) error {
	if !pins.Valid(label) {
		return d.reject("Pin", ErrInvalidPin, "invalid pin value")
	}
	return nil
}

// assignPinLocked tears down the subscription on the old data
// characteristic, then resolves the new pin. label must be valid.
func (d *device) assignPinLocked(label string) {
	d.unsubscribeLocked()

	addr, err := pins.Resolve(label)
	if err != nil {
		// checkPin guarantees this cannot happen
		config.Warnf("%s: %v", d.name, err)
		return
	}
	d.pin = label
	d.addr = addr
	d.resolved = true
	d.gen++
	config.Debugf("%s: pin %s -> mode %s data %s", d.name, label, addr.Mode, addr.Data)
}

func (d *device) writeLocked(characteristic string, value int) {
	if err := d.transport.WriteInts(d.addr.Service, characteristic, true, value); err != nil {
		// The next sync tick retries.
		config.Debugf("%s: write %d to %s failed: %v", d.name, value, characteristic, err)
	}
}

func (d *device) writeModeLocked() {
	d.writeLocked(d.addr.Mode, int(d.mode))
}

func (d *device) writeDataLocked(value int) {
	d.writeLocked(d.addr.Data, value)
}

// decodeFunc turns raw samples into an event payload. It runs with the lock
// held and returns false to drop the delivery.
type decodeFunc func(values []int) (any, bool)

// readLocked issues a one-shot read whose result is dropped if the
// identifiers change before it arrives.
func (d *device) readLocked(decode decodeFunc) {
	gen := d.gen
	deliver := func(values []int) {
		d.deliver(values, decode, func() bool { return d.gen == gen })
	}
	if err := d.transport.ReadInts(d.addr.Service, d.addr.Data, true, deliver); err != nil {
		config.Debugf("%s: read %s failed: %v", d.name, d.addr.Data, err)
	}
}

// subscribeLocked registers decode on the data characteristic unless a
// subscription is already live.
func (d *device) subscribeLocked(decode decodeFunc) {
	if d.subLive {
		return
	}

	d.subSeq++
	gen, seq := d.gen, d.subSeq
	deliver := func(values []int) {
		d.deliver(values, decode, func() bool {
			return d.gen == gen && d.subLive && d.subSeq == seq
		})
	}

	h, err := d.transport.Subscribe(d.addr.Service, d.addr.Data, true, deliver)
	if err != nil {
		config.Debugf("%s: subscribe %s failed: %v", d.name, d.addr.Data, err)
		return
	}
	d.sub = h
	d.subLive = true
	config.Debugf("%s: subscribed to %s", d.name, d.addr.Data)
}

// unsubscribeLocked drops the live subscription, if any. The handle is
// forgotten even when the transport call fails.
func (d *device) unsubscribeLocked() {
	if !d.subLive {
		return
	}
	h := d.sub
	d.sub = Handle{}
	d.subLive = false

	if d.transport == nil {
		return
	}
	if err := d.transport.Unsubscribe(h); err != nil {
		config.Debugf("%s: unsubscribe %s failed: %v", d.name, h.Characteristic, err)
		return
	}
	config.Debugf("%s: unsubscribed from %s", d.name, h.Characteristic)
}

func (d *device) deliver(values []int, decode decodeFunc, current func() bool) {
	d.mu.Lock()
	if !current() {
		d.mu.Unlock()
		return
	}
	payload, ok := decode(values)
	d.mu.Unlock()

	if ok {
		d.sink.EmitEvent(EventInputUpdated, payload)
	}
}

// firstSample returns the first non-negative sample. Negative samples mean
// the board has no reading yet.
func firstSample(values []int) (int, bool) {
	if len(values) == 0 || values[0] < 0 {
		return 0, false
	}
	return values[0], true
}
