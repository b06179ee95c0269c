package ble

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
	"github.com/vitaminmoo/mt7697-tool/internal/util"

	"tinygo.org/x/bluetooth"
)

// characteristic is the subset of bluetooth.DeviceCharacteristic the
// transport uses.
type characteristic interface {
	Read(data []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
	EnableNotifications(callback func(buf []byte)) error
}

type charKey struct {
	service, characteristic string
}

// subscription fans one characteristic's notifications out to every
// registered handle.
type subscription struct {
	signed bool
	fns    map[uint64]func([]int)
}

// Transport implements peripheral.Transport over a connected BLE device.
type Transport struct {
	device  bluetooth.Device
	address string

	mu        sync.Mutex
	connected bool
	chars     map[charKey]characteristic
	subs      map[charKey]*subscription
	nextID    uint64
}

var _ peripheral.Transport = (*Transport)(nil)

func newTransport() *Transport {
	return &Transport{
		chars: make(map[charKey]characteristic),
		subs:  make(map[charKey]*subscription),
	}
}

// normalizeUUID returns the canonical lower-case form of id so table lookups
// do not depend on how the caller spelled it.
func normalizeUUID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return strings.ToLower(id)
}

func keyFor(service, char string) charKey {
	return charKey{normalizeUUID(service), normalizeUUID(char)}
}

// discover records every characteristic of every service the device
// publishes.
func (t *Transport) discover() error {
	config.Debugf("Discovering services...")

	services, err := t.device.DiscoverServices(nil)
	if err != nil {
		return fmt.Errorf("discover services: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range services {
		svc := normalizeUUID(services[i].UUID().String())
		chars, err := services[i].DiscoverCharacteristics(nil)
		if err != nil {
			config.Debugf("Service %s: %v", svc, err)
			continue
		}
		for j := range chars {
			id := normalizeUUID(chars[j].UUID().String())
			t.chars[charKey{svc, id}] = &chars[j]
			config.Debugf("Found characteristic: %s/%s", svc, id)
		}
	}
	return nil
}

func (t *Transport) lookup(service, char string) (characteristic, charKey, error) {
	key := keyFor(service, char)
	c, ok := t.chars[key]
	if !ok {
		return nil, key, fmt.Errorf("characteristic %s not published", key.characteristic)
	}
	return c, key, nil
}

// WriteInts writes values as 32-bit little-endian integers.
func (t *Transport) WriteInts(service, char string, signed bool, values ...int) error {
	t.mu.Lock()
	c, key, err := t.lookup(service, char)
	connected := t.connected
	t.mu.Unlock()
	if err != nil {
		return err
	}
	if !connected {
		return fmt.Errorf("write %s: not connected", key.characteristic)
	}

	data := EncodeInts(signed, values...)
	if config.Verbose {
		config.Debugf("Write %s %v:\n%s", key.characteristic, values, util.HexDump(data))
	}
	// Use WriteWithoutResponse; the board's characteristics are not ack'd.
	if _, err := c.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("write %s: %w", key.characteristic, err)
	}
	return nil
}

// ReadInts reads the characteristic on a new goroutine and hands the decoded
// values to fn. Failed reads are logged and fn is not called.
func (t *Transport) ReadInts(service, char string, signed bool, fn func([]int)) error {
	t.mu.Lock()
	c, key, err := t.lookup(service, char)
	connected := t.connected
	t.mu.Unlock()
	if err != nil {
		return err
	}
	if !connected {
		return fmt.Errorf("read %s: not connected", key.characteristic)
	}

	go func() {
		buf := make([]byte, readBufferSize)
		n, err := c.Read(buf)
		if err != nil {
			config.Debugf("Read %s: %v", key.characteristic, err)
			return
		}
		fn(DecodeInts(signed, buf[:n]))
	}()
	return nil
}

// Subscribe registers fn for notifications on the characteristic. The first
// registration enables notifications on the device.
func (t *Transport) Subscribe(service, char string, signed bool, fn func([]int)) (peripheral.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, key, err := t.lookup(service, char)
	if err != nil {
		return peripheral.Handle{}, err
	}

	sub, ok := t.subs[key]
	if !ok {
		sub = &subscription{signed: signed, fns: make(map[uint64]func([]int))}
		if err := c.EnableNotifications(func(buf []byte) { t.dispatch(key, buf) }); err != nil {
			return peripheral.Handle{}, fmt.Errorf("enable notifications on %s: %w", key.characteristic, err)
		}
		t.subs[key] = sub
	}

	t.nextID++
	sub.fns[t.nextID] = fn
	return peripheral.Handle{Service: key.service, Characteristic: key.characteristic, ID: t.nextID}, nil
}

// Unsubscribe removes h. Removing the last handle on a characteristic
// disables its notifications.
func (t *Transport) Unsubscribe(h peripheral.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := keyFor(h.Service, h.Characteristic)
	sub, ok := t.subs[key]
	if !ok {
		return nil
	}
	delete(sub.fns, h.ID)
	if len(sub.fns) > 0 {
		return nil
	}
	delete(t.subs, key)

	c, ok := t.chars[key]
	if !ok {
		return nil
	}
	if err := c.EnableNotifications(nil); err != nil {
		return fmt.Errorf("disable notifications on %s: %w", key.characteristic, err)
	}
	return nil
}

func (t *Transport) dispatch(key charKey, buf []byte) {
	t.mu.Lock()
	sub, ok := t.subs[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	signed := sub.signed
	fns := make([]func([]int), 0, len(sub.fns))
	for _, fn := range sub.fns {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	if config.Verbose {
		config.Debugf("Notify %s:\n%s", key.characteristic, util.HexDump(buf))
	}
	values := DecodeInts(signed, buf)
	for _, fn := range fns {
		fn(values)
	}
}

// IsPublished reports whether discovery found the characteristic.
func (t *Transport) IsPublished(service, char string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.chars[keyFor(service, char)]
	return ok
}

// IsConnected reports the link state last seen by the adapter.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *Transport) setConnected(connected bool) {
	t.mu.Lock()
	t.connected = connected
	t.mu.Unlock()
}

// Address returns the device address the transport is connected to.
func (t *Transport) Address() string {
	return t.address
}

// Close disconnects from the device.
func (t *Transport) Close() error {
	t.setConnected(false)
	return t.device.Disconnect()
}
