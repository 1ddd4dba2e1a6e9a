package subscription

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDLocks_SerializesSameID(t *testing.T) {
	locks := newIDLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("sub-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestIDLocks_DifferentIDsDoNotBlock(t *testing.T) {
	locks := newIDLocks()
	unlockA := locks.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()
	<-done

	unlockA()
}

func TestIDLocks_EntryRemovedWhenReleased(t *testing.T) {
	locks := newIDLocks()
	unlock := locks.Lock("sub-1")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.held, "released locks must not leak map entries")
}
