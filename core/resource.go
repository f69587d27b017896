package core

import "sync"

// Resource groups every driver that shares one bus behind a single lock.
// This is the serialization a Gate relies on: as long as drivers on a gate
// are only reached through one Resource, the gate never sees contention.
//
// On TinyGo, Lock also masks interrupts for the duration of fn, the
// single-core equivalent of a priority ceiling covering every task that uses
// the resource. Keep the critical section short; nothing inside may block.
type Resource[T any] struct {
	mu    sync.Mutex
	value T
}

// NewResource wraps v (typically a struct of drivers built on proxies)
func NewResource[T any](v T) *Resource[T] {
	return &Resource[T]{value: v}
}

// Lock runs fn with exclusive access to the grouped drivers.
// Lock is not reentrant.
func (r *Resource[T]) Lock(fn func(v *T)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := disableInterrupts()
	defer restoreInterrupts(state)

	fn(&r.value)
}

// LockResult runs fn like Lock and returns its result once the lock is
// released. Output that needs interrupts (USB CDC, UART with IRQ-driven TX)
// should be done with the result, not inside fn.
func LockResult[T, R any](r *Resource[T], fn func(v *T) R) R {
	var result R
	r.Lock(func(v *T) {
		result = fn(v)
	})
	return result
}
