// Package board bundles the pin, buzzer and ultrasonic clients of one
// connected MT7697 and merges their sink output into a single event stream.
package board

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
)

// Client names used as Event.Source.
const (
	SourcePin        = "pin"
	SourceBuzzer     = "buzzer"
	SourceUltrasonic = "ultrasonic"
)

// eventBuffer bounds how many events may queue before new ones are dropped.
const eventBuffer = 64

// Event is either a client event (Name set) or a rejected operation (Err
// set).
type Event struct {
	Source  string
	Name    string
	Payload any
	Err     *peripheral.Error
	At      time.Time
}

// Board owns one client of each kind on a shared transport.
type Board struct {
	Pin        *peripheral.Pin
	Buzzer     *peripheral.Buzzer
	Ultrasonic *peripheral.Ultrasonic

	events  chan Event
	dropped atomic.Uint64
	once    sync.Once
}

// New starts all three clients on t using the pins and interval from s.
func New(t peripheral.Transport, s config.Settings) *Board {
	b := &Board{events: make(chan Event, eventBuffer)}

	b.Pin = peripheral.NewPin(t, peripheral.Config{
		Pin:      s.Pins.Pin,
		Interval: s.SyncInterval,
		Sink:     b.sink(SourcePin),
	})
	b.Buzzer = peripheral.NewBuzzer(t, peripheral.Config{
		Pin:      s.Pins.Buzzer,
		Interval: s.SyncInterval,
		Sink:     b.sink(SourceBuzzer),
	})
	b.Ultrasonic = peripheral.NewUltrasonic(t, peripheral.Config{
		Pin:      s.Pins.Ultrasonic,
		Interval: s.SyncInterval,
		Sink:     b.sink(SourceUltrasonic),
	})
	return b
}

func (b *Board) sink(source string) peripheral.Sink {
	return peripheral.FuncSink{
		OnError: func(op string, code peripheral.Code, msg string) {
			config.Debugf("%s: %s rejected: %s", source, op, msg)
			b.publish(Event{Source: source, Err: &peripheral.Error{Op: op, Code: code, Msg: msg}})
		},
		OnEvent: func(name string, payload any) {
			b.publish(Event{Source: source, Name: name, Payload: payload})
		},
	}
}

// publish never blocks; a full buffer drops the event.
func (b *Board) publish(ev Event) {
	ev.At = time.Now()
	select {
	case b.events <- ev:
	default:
		n := b.dropped.Add(1)
		config.Debugf("%s: event buffer full, dropped %d so far", ev.Source, n)
	}
}

// Events returns the merged event stream. It is never closed.
func (b *Board) Events() <-chan Event {
	return b.events
}

// Dropped returns how many events were discarded because nobody drained
// Events in time.
func (b *Board) Dropped() uint64 {
	return b.dropped.Load()
}

// SetTransport moves every client to t.
func (b *Board) SetTransport(t peripheral.Transport) {
	b.Pin.SetTransport(t)
	b.Buzzer.SetTransport(t)
	b.Ultrasonic.SetTransport(t)
}

// Close stops every client and waits for their schedulers to finish.
func (b *Board) Close() {
	b.once.Do(func() {
		b.Pin.Close()
		b.Buzzer.Close()
		b.Ultrasonic.Close()
		<-b.Pin.Done()
		<-b.Buzzer.Done()
		<-b.Ultrasonic.Done()
	})
}
