package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()
	require.Zero(t, r.Count())

	r.Add("s1", "bangkok-fortune")
	r.Add("s2", "bangkok-fortune")
	require.Equal(t, 2, r.Count())

	info, ok := r.Get("s1")
	require.True(t, ok)
	require.Equal(t, "bangkok-fortune", info.BusinessID)
	require.False(t, info.ConnectedAt.IsZero())

	r.Remove("s1")
	require.Equal(t, 1, r.Count())
	_, ok = r.Get("s1")
	require.False(t, ok)

	// Removing an unknown session is a no-op.
	r.Remove("s1")
	require.Equal(t, 1, r.Count())
}

func TestSessionRegistryConcurrentAccess(t *testing.T) {
	r := NewSessionRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			r.Add(id, "biz")
			r.Count()
			r.Remove(id)
		}(i)
	}
	wg.Wait()
	require.Zero(t, r.Count())
}
