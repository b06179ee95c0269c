package ble

import "github.com/vitaminmoo/mt7697-tool/internal/pins"

const (
	// DefaultDeviceName is the name the pin-service firmware advertises.
	DefaultDeviceName = "MT7697"

	// PinServiceUUID is the service every pin profile is registered on.
	PinServiceUUID = pins.ServiceUUID

	// intSize is the width of one integer on the wire.
	intSize = 4

	// readBufferSize bounds a single characteristic read.
	readBufferSize = 64
)
