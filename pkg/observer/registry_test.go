package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_PublishInRegistrationOrder(t *testing.T) {
	r := NewRegistry[int]()

	var got []string
	r.Subscribe(func(v int) { got = append(got, "first") })
	r.Subscribe(func(v int) { got = append(got, "second") })
	r.Subscribe(func(v int) { got = append(got, "third") })

	r.Publish(1)

	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestRegistry_UnsubscribeByHandle(t *testing.T) {
	r := NewRegistry[string]()

	var got []string
	h1 := r.Subscribe(func(v string) { got = append(got, "a:"+v) })
	r.Subscribe(func(v string) { got = append(got, "b:"+v) })

	r.Unsubscribe(h1)
	r.Publish("x")

	assert.Equal(t, []string{"b:x"}, got)
	assert.Equal(t, 1, r.Len())

	// Unknown handle is a no-op.
	r.Unsubscribe(Handle(999))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DuplicateCallbacksKeepSeparateHandles(t *testing.T) {
	r := NewRegistry[int]()

	count := 0
	fn := func(int) { count++ }
	h1 := r.Subscribe(fn)
	h2 := r.Subscribe(fn)
	assert.NotEqual(t, h1, h2)

	r.Publish(0)
	assert.Equal(t, 2, count)

	r.Unsubscribe(h1)
	r.Publish(0)
	assert.Equal(t, 3, count)
}

func TestRegistry_PanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry[int]()

	delivered := false
	r.Subscribe(func(int) { panic("bad subscriber") })
	r.Subscribe(func(int) { delivered = true })

	assert.NotPanics(t, func() { r.Publish(7) })
	assert.True(t, delivered)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry[int]()
	r.Subscribe(func(int) {})
	r.Subscribe(func(int) {})

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.NotPanics(t, func() { r.Publish(1) })
}
