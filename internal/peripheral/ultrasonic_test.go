package peripheral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUltrasonic(t *testing.T) (*Ultrasonic, *fakeTransport, *recordingSink) {
	t.Helper()
	ft := newFakeTransport()
	sink := &recordingSink{}
	u := newUltrasonic(ft, Config{Sink: sink})
	t.Cleanup(u.Close)
	return u, ft, sink
}

func TestUltrasonicDefaults(t *testing.T) {
	u, ft, _ := newTestUltrasonic(t)
	a := mustResolve(t, "8")

	assert.Equal(t, "8", u.Pin())
	assert.Equal(t, UnitCentimeters, u.Unit())
	assert.Equal(t, []write{{a.Mode, []int{int(ModeUltrasonic)}}}, ft.Writes())
}

func TestUltrasonicDecode(t *testing.T) {
	u, ft, sink := newTestUltrasonic(t)
	u.RequestInputUpdates()
	data := u.Address().Data

	ft.notify(data, 100)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, 100.0, sink.Events()[0])

	ft.notify(data, -1)
	assert.Len(t, sink.Events(), 1)

	// the unit in effect at delivery applies
	require.NoError(t, u.SetUnit("inch"))
	ft.notify(data, 100)
	require.Len(t, sink.Events(), 2)
	assert.InDelta(t, 39.3701, sink.Events()[1], 1e-9)
	assert.InDelta(t, 39.3701, u.Distance(), 1e-9)

	require.NoError(t, u.SetUnit("cm"))
	ft.notify(data, 0)
	require.Len(t, sink.Events(), 3)
	assert.Equal(t, 0.0, sink.Events()[2])
}

func TestUltrasonicSetUnitInvalid(t *testing.T) {
	u, ft, sink := newTestUltrasonic(t)
	ft.reset()

	assert.ErrorIs(t, u.SetUnit("mm"), ErrInvalidUnit)
	assert.Equal(t, UnitCentimeters, u.Unit())
	assert.Equal(t, []Code{ErrInvalidUnit}, sink.Errors())
	assert.Empty(t, ft.Writes(), "unit never reaches the board")
}

func TestUltrasonicSetPinDropsSubscription(t *testing.T) {
	u, ft, sink := newTestUltrasonic(t)
	u.RequestInputUpdates()
	require.Len(t, ft.Live(), 1)
	h := ft.Live()[0]
	old := ft.callback(h)

	require.NoError(t, u.SetPin("9"))
	assert.Equal(t, []Handle{h}, ft.Removed())
	assert.Empty(t, ft.Live())

	old([]int{50})
	assert.Empty(t, sink.Events())
}

func TestUltrasonicStopInputUpdates(t *testing.T) {
	u, ft, sink := newTestUltrasonic(t)
	u.RequestInputUpdates()
	u.RequestInputUpdates()
	require.Len(t, ft.Live(), 1)
	old := ft.callback(ft.Live()[0])

	u.StopInputUpdates()
	assert.Empty(t, ft.Live())

	old([]int{50})
	assert.Empty(t, sink.Events())
}

func TestUltrasonicSync(t *testing.T) {
	u, ft, _ := newTestUltrasonic(t)
	ft.reset()

	u.sync()
	a := u.Address()
	assert.Equal(t, []write{{a.Mode, []int{int(ModeUltrasonic)}}}, ft.Writes())

	ft.setConnected(false)
	ft.reset()
	u.sync()
	assert.Empty(t, ft.Writes())
}

func TestUltrasonicCloseDropsSubscription(t *testing.T) {
	ft := newFakeTransport()
	u := newUltrasonic(ft, Config{Sink: &recordingSink{}})
	u.RequestInputUpdates()
	require.Len(t, ft.Live(), 1)

	u.Close()
	u.Close()
	assert.Empty(t, ft.Live())
	<-u.Done()
}

func TestParseUnit(t *testing.T) {
	u, ok := ParseUnit("inch")
	assert.True(t, ok)
	assert.Equal(t, "inch", u.String())

	u, ok = ParseUnit("cm")
	assert.True(t, ok)
	assert.Equal(t, "cm", u.String())

	_, ok = ParseUnit("Inch")
	assert.False(t, ok)
}
