package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral/peripheraltest"
)

func newTestBoard(t *testing.T) (*Board, *peripheraltest.Transport) {
	t.Helper()
	ft := peripheraltest.New()
	s := config.Defaults()
	s.SyncInterval = time.Hour
	b := New(ft, s)
	t.Cleanup(b.Close)
	return b, ft
}

func next(t *testing.T, b *Board) Event {
	t.Helper()
	select {
	case ev := <-b.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func TestBoardUsesSettings(t *testing.T) {
	b, _ := newTestBoard(t)

	assert.Equal(t, "2", b.Pin.Pin())
	assert.Equal(t, "10", b.Buzzer.Pin())
	assert.Equal(t, "8", b.Ultrasonic.Pin())
}

func TestBoardInputEvents(t *testing.T) {
	b, ft := newTestBoard(t)

	b.Pin.RequestInputUpdates()
	ft.Notify(b.Pin.Address().Data, 512)

	ev := next(t, b)
	assert.Equal(t, SourcePin, ev.Source)
	assert.Equal(t, peripheral.EventInputUpdated, ev.Name)
	assert.Equal(t, 512, ev.Payload)
	assert.Nil(t, ev.Err)
	assert.False(t, ev.At.IsZero())

	b.Ultrasonic.RequestInputUpdates()
	ft.Notify(b.Ultrasonic.Address().Data, 30)

	ev = next(t, b)
	assert.Equal(t, SourceUltrasonic, ev.Source)
	assert.Equal(t, 30.0, ev.Payload)
}

func TestBoardErrorEvents(t *testing.T) {
	b, _ := newTestBoard(t)

	err := b.Buzzer.Buzz(0)
	require.ErrorIs(t, err, peripheral.ErrInvalidDuration)

	ev := next(t, b)
	assert.Equal(t, SourceBuzzer, ev.Source)
	require.NotNil(t, ev.Err)
	assert.Equal(t, peripheral.ErrInvalidDuration, ev.Err.Code)
	assert.Equal(t, "Buzz", ev.Err.Op)
}

func TestBoardDropsWhenFull(t *testing.T) {
	b, ft := newTestBoard(t)
	b.Pin.RequestInputUpdates()

	data := b.Pin.Address().Data
	for i := 0; i < eventBuffer+5; i++ {
		ft.Notify(data, i)
	}
	assert.Equal(t, uint64(5), b.Dropped())
	assert.Len(t, b.Events(), eventBuffer)
}

func TestBoardClose(t *testing.T) {
	ft := peripheraltest.New()
	b := New(ft, config.Defaults())
	b.Pin.RequestInputUpdates()
	b.Ultrasonic.RequestInputUpdates()
	require.Equal(t, 2, ft.Subscriptions())

	b.Close()
	b.Close()
	assert.Zero(t, ft.Subscriptions())
}
