package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/mt7697-tool/internal/board"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral/peripheraltest"
)

func newTestShell(t *testing.T) (*Shell, *board.Board, *peripheraltest.Transport, *bytes.Buffer) {
	t.Helper()
	ft := peripheraltest.New()
	s := config.Defaults()
	s.SyncInterval = time.Hour
	b := board.New(ft, s)
	t.Cleanup(b.Close)

	out := &bytes.Buffer{}
	return NewShell(b, out), b, ft, out
}

func TestShellPinCommands(t *testing.T) {
	sh, b, ft, out := newTestShell(t)

	assert.False(t, sh.Exec("pin 4"))
	assert.False(t, sh.Exec("mode analog-output"))
	assert.False(t, sh.Exec("write 300"))
	assert.Empty(t, out.String())

	assert.Equal(t, "4", b.Pin.Pin())
	assert.Equal(t, peripheral.ModeAnalogOutput, b.Pin.Mode())
	assert.Equal(t, 255, b.Pin.Value())

	writes := ft.Writes()
	require.NotEmpty(t, writes)
	last := writes[len(writes)-1]
	assert.Equal(t, b.Pin.Address().Data, last.Characteristic)
	assert.Equal(t, []int{-255}, last.Values)
}

func TestShellModeWithSpaces(t *testing.T) {
	sh, b, _, out := newTestShell(t)

	sh.Exec("mode digital output")
	assert.Empty(t, out.String())
	assert.Equal(t, peripheral.ModeDigitalOutput, b.Pin.Mode())
}

func TestShellReportsRejections(t *testing.T) {
	sh, _, _, out := newTestShell(t)

	sh.Exec("buzz 0")
	assert.Contains(t, out.String(), "9105")

	out.Reset()
	sh.Exec("pin 1")
	assert.Contains(t, out.String(), "9101")

	out.Reset()
	sh.Exec("write abc")
	assert.Contains(t, out.String(), "not a number")

	out.Reset()
	sh.Exec("unit furlong")
	assert.Contains(t, out.String(), "9106")
}

func TestShellWatch(t *testing.T) {
	sh, _, ft, out := newTestShell(t)

	sh.Exec("watch")
	assert.Empty(t, out.String())
	assert.Equal(t, 1, ft.Subscriptions())

	sh.Exec("watch ultrasonic")
	assert.Equal(t, 2, ft.Subscriptions())

	sh.Exec("unwatch ultrasonic")
	sh.Exec("unwatch")
	assert.Zero(t, ft.Subscriptions())

	sh.Exec("mode servo")
	sh.Exec("watch")
	assert.Contains(t, out.String(), "servo mode")
	assert.Zero(t, ft.Subscriptions())
}

func TestShellStatusAndQuit(t *testing.T) {
	sh, _, _, out := newTestShell(t)

	sh.Exec("status")
	assert.Contains(t, out.String(), "Buzzer:     10  440 Hz  online")
	assert.Contains(t, out.String(), "Ultrasonic: 8 ")

	out.Reset()
	sh.Exec("frobnicate")
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	assert.False(t, sh.Exec("   "))
	assert.True(t, sh.Exec("quit"))
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "[pin] InputUpdated 7",
		formatEvent(board.Event{Source: "pin", Name: peripheral.EventInputUpdated, Payload: 7}))
	assert.Equal(t, "[ultrasonic] InputUpdated 39.37",
		formatEvent(board.Event{Source: "ultrasonic", Name: peripheral.EventInputUpdated, Payload: 39.3701}))
	assert.Equal(t, "[buzzer] Buzz: bad (9105)",
		formatEvent(board.Event{Source: "buzzer", Err: &peripheral.Error{Op: "Buzz", Code: peripheral.ErrInvalidDuration, Msg: "bad"}}))
}
