package persist

import "context"

// signalReadable wakes a waiter registered via WaitNotEmpty, if the
// async-await facet is enabled. The send is non-blocking into a
// size-1 channel: if a wake is already latched (no one has consumed it
// yet), this is a no-op rather than a block, which is what keeps the
// producer path interrupt-safe — it must never be able to stall here.
// Grounded directly on paultag-go-diskring's Write
// (`select { case r.wakeup <- struct{}{}: default: }`) and cross-checked
// against shmring.go's identical idiom for its readable/writable
// channels.
func (s *ringState) signalReadable() {
	if s.wake == nil {
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// WaitNotEmpty suspends the calling goroutine until the buffer is (or
// becomes) non-empty, or ctx is done. It is cooperative and single-
// threaded on the consumer side (spec.md §4.6/§5): only one waiter is
// ever expected at a time. Spurious wakeups are permitted — callers must
// re-check IsEmpty/Read after waking, same as the edge-coalesced
// channels it's built on.
//
// WaitNotEmpty returns ErrAsyncAwaitDisabled immediately if the Consumer
// was bound without WithAsyncAwait.
func (c *Consumer) WaitNotEmpty(ctx context.Context) error {
	if c.state.wake == nil {
		return ErrAsyncAwaitDisabled
	}
	if !c.IsEmpty() {
		return nil
	}
	select {
	case <-c.state.wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
