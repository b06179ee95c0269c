// Package pins maps MT7697 pin labels to the GATT characteristics the board
// firmware registers for them.
//
// Every pin profile lives on the same service. This table derives each
// characteristic UUID from a shared base by writing the pin number and a role
// byte into the first 32 bits:
//
//	c7e1PPRR-...   PP = pin number, RR = 01 (mode) or 02 (data)
//
// The derivation is the host's own; it must match the profile table flashed
// onto the board.
//
// The firmware registers profiles for pins 0 through 17; only 2 through 17
// are usable from the host.
package pins

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

const (
	// ServiceUUID is the pin service shared by every pin profile.
	ServiceUUID = "c7e10000-1b1a-4a88-9bb3-6d7f2c16a7e1"

	roleMode byte = 0x01
	roleData byte = 0x02

	// ProfileCount is the number of pin profiles registered by the firmware.
	ProfileCount = 18
)

// ErrUnknownPin is returned by Resolve for labels outside Labels.
var ErrUnknownPin = errors.New("unknown pin")

// Labels lists the valid pin labels in order.
var Labels = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17"}

// Address identifies the characteristics backing one pin.
type Address struct {
	Service string
	Mode    string
	Data    string
}

var (
	base  = uuid.MustParse(ServiceUUID)
	table = buildTable()
)

func buildTable() map[string]Address {
	t := make(map[string]Address, len(Labels))
	for _, label := range Labels {
		n, _ := strconv.Atoi(label)
		t[label] = Address{
			Service: ServiceUUID,
			Mode:    CharacteristicUUID(n, roleMode),
			Data:    CharacteristicUUID(n, roleData),
		}
	}
	return t
}

// CharacteristicUUID derives the characteristic UUID for a pin number and
// role byte.
func CharacteristicUUID(pin int, role byte) string {
	u := base
	u[2] = byte(pin)
	u[3] = role
	return u.String()
}

// Valid reports whether label is one of Labels.
func Valid(label string) bool {
	_, ok := table[label]
	return ok
}

// Resolve returns the characteristic address for a pin label.
func Resolve(label string) (Address, error) {
	a, ok := table[label]
	if !ok {
		return Address{}, fmt.Errorf("%w: %q", ErrUnknownPin, label)
	}
	return a, nil
}
