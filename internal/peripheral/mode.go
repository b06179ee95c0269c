package peripheral

// Mode is the operating role written to a pin's mode characteristic. The
// numeric values are what the firmware expects on the wire.
type Mode int

const (
	ModeUnset Mode = iota
	ModeAnalogInput
	ModeAnalogOutput
	ModeDigitalInput
	ModeDigitalOutput
	ModeServo
	ModeUltrasonic
	ModeBuzzer
)

var modeNames = map[Mode]string{
	ModeUnset:         "unset",
	ModeAnalogInput:   "analog input",
	ModeAnalogOutput:  "analog output",
	ModeDigitalInput:  "digital input",
	ModeDigitalOutput: "digital output",
	ModeServo:         "servo",
	ModeUltrasonic:    "ultrasonic",
	ModeBuzzer:        "buzzer",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// IsInput reports whether the board samples the pin.
func (m Mode) IsInput() bool {
	return m == ModeAnalogInput || m == ModeDigitalInput
}

// IsOutput reports whether the board drives the pin from the data
// characteristic.
func (m Mode) IsOutput() bool {
	return m == ModeAnalogOutput || m == ModeDigitalOutput || m == ModeServo
}

// PinModes are the mode tokens a Pin accepts, in display order.
var PinModes = []Mode{ModeAnalogInput, ModeAnalogOutput, ModeDigitalInput, ModeDigitalOutput, ModeServo}

// ParsePinMode maps a mode token to one of PinModes.
func ParsePinMode(token string) (Mode, bool) {
	for _, m := range PinModes {
		if m.String() == token {
			return m, true
		}
	}
	return ModeUnset, false
}
