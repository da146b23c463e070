package timeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_NotifyReachesOnlyMatchingSubscribers(t *testing.T) {
	hub := NewHub()

	calls := map[string]int{}
	hub.Subscribe("+15550000001", func() { calls["a"]++ })
	hub.Subscribe("+15550000001", func() { calls["b"]++ })
	hub.Subscribe("+15550000002", func() { calls["c"]++ })

	hub.Notify("+15550000001")

	assert.Equal(t, 1, calls["a"])
	assert.Equal(t, 1, calls["b"])
	assert.Zero(t, calls["c"])
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	calls := 0
	unsubscribe := hub.Subscribe("+15550000001", func() { calls++ })
	assert.Equal(t, 1, hub.SubscriberCount("+15550000001"))

	hub.Notify("+15550000001")
	unsubscribe()
	hub.Notify("+15550000001")

	assert.Equal(t, 1, calls)
	assert.Zero(t, hub.SubscriberCount("+15550000001"))

	// A second call is harmless.
	unsubscribe()
}

func TestHub_NotifyMany(t *testing.T) {
	hub := NewHub()

	calls := map[string]int{}
	hub.Subscribe("+15550000001", func() { calls["a"]++ })
	hub.Subscribe("+15550000002", func() { calls["b"]++ })

	hub.NotifyMany([]string{"+15550000001", "+15550000002", "+15550000003"})

	assert.Equal(t, 1, calls["a"])
	assert.Equal(t, 1, calls["b"])
}

func TestHub_NotifyUnknownPhoneIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Notify("+15559999999")
}

func TestHub_ConcurrentSubscribeAndNotify(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsubscribe := hub.Subscribe("+15550000001", func() {})
			unsubscribe()
		}()
		go func() {
			defer wg.Done()
			hub.Notify("+15550000001")
		}()
	}
	wg.Wait()

	assert.Zero(t, hub.SubscriberCount("+15550000001"))
}
