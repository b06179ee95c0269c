package peripheral

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePinMode(t *testing.T) {
	tests := []struct {
		token string
		want  Mode
		ok    bool
	}{
		{"analog input", ModeAnalogInput, true},
		{"analog output", ModeAnalogOutput, true},
		{"digital input", ModeDigitalInput, true},
		{"digital output", ModeDigitalOutput, true},
		{"servo", ModeServo, true},
		{"buzzer", ModeUnset, false},
		{"ultrasonic", ModeUnset, false},
		{"Servo", ModeUnset, false},
		{"", ModeUnset, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParsePinMode(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeWireValues(t *testing.T) {
	assert.Equal(t, 0, int(ModeUnset))
	assert.Equal(t, 1, int(ModeAnalogInput))
	assert.Equal(t, 5, int(ModeServo))
	assert.Equal(t, 6, int(ModeUltrasonic))
	assert.Equal(t, 7, int(ModeBuzzer))
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestModeFamilies(t *testing.T) {
	for _, m := range PinModes {
		assert.NotEqual(t, m.IsInput(), m.IsOutput(), m.String())
	}
	assert.False(t, ModeBuzzer.IsOutput())
	assert.False(t, ModeUltrasonic.IsInput())
}

func TestErrorMatching(t *testing.T) {
	var err error = &Error{Op: "Buzz", Code: ErrInvalidDuration, Msg: "bad"}
	wrapped := fmt.Errorf("buzz: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInvalidDuration))
	assert.False(t, errors.Is(wrapped, ErrInvalidPin))
	assert.Equal(t, "Buzz: bad (9105)", err.Error())
	assert.Equal(t, "invalid pin", ErrInvalidPin.Error())
}
