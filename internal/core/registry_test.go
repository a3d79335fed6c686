package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddRemove(t *testing.T) {
	reg := NewRegistry()
	h := NewHandle()

	require.True(t, reg.Add(h, &recorder{}))
	assert.True(t, reg.Contains(h))
	assert.Equal(t, 1, reg.Len())

	_, removed := reg.Remove(h)
	assert.True(t, removed)
	assert.False(t, reg.Contains(h))

	_, removed = reg.Remove(h)
	assert.False(t, removed, "second remove must be a no-op")
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryDuplicateAddKeepsOriginal(t *testing.T) {
	reg := NewRegistry()
	h := NewHandle()
	first, second := &recorder{}, &recorder{}

	require.True(t, reg.Add(h, first))
	require.False(t, reg.Add(h, second))
	assert.Equal(t, 1, reg.Len())

	reg.ForEachExcept(NoHandle, func(s Sender) error { return s.Send("x") })
	assert.Equal(t, []string{"x"}, first.messages())
	assert.Empty(t, second.messages())
}

func TestRegistryForEachExceptSkipsExcluded(t *testing.T) {
	reg := NewRegistry()
	a, b, c := NewHandle(), NewHandle(), NewHandle()
	ra, rb, rc := &recorder{}, &recorder{}, &recorder{}
	reg.Add(a, ra)
	reg.Add(b, rb)
	reg.Add(c, rc)

	failed := reg.ForEachExcept(a, func(s Sender) error { return s.Send("hi") })

	assert.Empty(t, failed)
	assert.Empty(t, ra.messages())
	assert.Equal(t, []string{"hi"}, rb.messages())
	assert.Equal(t, []string{"hi"}, rc.messages())
}

func TestRegistryForEachExceptIsolatesFailures(t *testing.T) {
	reg := NewRegistry()
	broken, panicky, healthy := NewHandle(), NewHandle(), NewHandle()
	ok := &recorder{}
	reg.Add(broken, &recorder{fail: errors.New("broken pipe")})
	reg.Add(panicky, SenderFunc(func(string) error { panic("boom") }))
	reg.Add(healthy, ok)

	var failed []Failure
	require.NotPanics(t, func() {
		failed = reg.ForEachExcept(NoHandle, func(s Sender) error { return s.Send("still here") })
	})

	require.Len(t, failed, 2)
	byHandle := make(map[Handle]error, len(failed))
	for _, f := range failed {
		byHandle[f.Handle] = f.Err
	}
	assert.EqualError(t, byHandle[broken], "broken pipe")
	assert.ErrorContains(t, byHandle[panicky], "send panicked: boom")
	assert.Equal(t, []string{"still here"}, ok.messages())
	assert.Equal(t, 3, reg.Len(), "registry never evicts on its own")
}

func TestRegistryActionMayMutateRegistry(t *testing.T) {
	reg := NewRegistry()
	a, b := NewHandle(), NewHandle()
	reg.Add(a, &recorder{})
	reg.Add(b, &recorder{})

	require.NotPanics(t, func() {
		reg.ForEachExcept(NoHandle, func(Sender) error {
			reg.Remove(a)
			reg.Add(NewHandle(), &recorder{})
			return nil
		})
	})
	assert.False(t, reg.Contains(a))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	const workers = 16

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h := NewHandle()
				reg.Add(h, &recorder{})
				reg.ForEachExcept(h, func(s Sender) error { return s.Send("x") })
				reg.Remove(h)
				reg.Remove(h)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Len())
}
