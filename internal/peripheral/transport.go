// Package peripheral implements host-side clients for the peripherals an
// MT7697 board exposes over its pin service: a generic pin, a buzzer and an
// ultrasonic range sensor.
//
// Each client keeps the desired configuration locally and pushes it to the
// board on a fixed interval, so the board converges to the client's state
// after reconnects or resets. Input readings pushed back by the board are
// decoded and delivered to a Sink as InputUpdated events.
package peripheral

// Transport is the characteristic-level link to the board.
//
// Callbacks passed to ReadInts and Subscribe must not be invoked from inside
// the call that registered them; clients hold their lock across these calls.
type Transport interface {
	// WriteInts writes values to a characteristic without waiting for an
	// acknowledgement.
	WriteInts(service, characteristic string, signed bool, values ...int) error

	// ReadInts issues a one-shot read and delivers the decoded values to fn.
	ReadInts(service, characteristic string, signed bool, fn func(values []int)) error

	// Subscribe registers fn for every value the board notifies on the
	// characteristic.
	Subscribe(service, characteristic string, signed bool, fn func(values []int)) (Handle, error)

	// Unsubscribe removes a registration made by Subscribe.
	Unsubscribe(h Handle) error

	// IsPublished reports whether the connected board advertises the
	// characteristic.
	IsPublished(service, characteristic string) bool

	IsConnected() bool
}

// Handle identifies one Subscribe registration.
type Handle struct {
	Service        string
	Characteristic string
	ID             uint64
}
