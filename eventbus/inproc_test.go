package eventbus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/eventbus"
)

func TestInProcDeliversInRegistrationOrder(t *testing.T) {
	b := eventbus.NewInProc()
	var order []int
	b.Subscribe("zone.entered", func(eventbus.Event) { order = append(order, 1) })
	b.Subscribe("zone.entered", func(eventbus.Event) { order = append(order, 2) })
	b.Publish(eventbus.Event{Type: "zone.entered"})
	require.Equal(t, []int{1, 2}, order)
}

func TestInProcFiltersByType(t *testing.T) {
	b := eventbus.NewInProc()
	var got []string
	b.Subscribe("a", func(e eventbus.Event) { got = append(got, e.Type) })
	b.Publish(eventbus.Event{Type: "b"})
	require.Empty(t, got)
	b.Publish(eventbus.Event{Type: "a"})
	require.Equal(t, []string{"a"}, got)
}

func TestInProcCloseRemovesListener(t *testing.T) {
	b := eventbus.NewInProc()
	var count int
	sub := b.Subscribe("x", func(eventbus.Event) { count++ })
	b.Publish(eventbus.Event{Type: "x"})
	require.Equal(t, 1, count)
	sub.Close()
	b.Publish(eventbus.Event{Type: "x"})
	require.Equal(t, 1, count)
}

func TestInProcRecoversPanic(t *testing.T) {
	b := eventbus.NewInProc()
	var recovered any
	b.OnListenerPanic = func(_ string, r any) { recovered = r }
	var secondRan bool
	b.Subscribe("x", func(eventbus.Event) { panic("boom") })
	b.Subscribe("x", func(eventbus.Event) { secondRan = true })
	require.NotPanics(t, func() { b.Publish(eventbus.Event{Type: "x"}) })
	require.NotNil(t, recovered)
	require.True(t, secondRan)
}

var _ eventbus.Bus = eventbus.NewInProc()
