package persist

import (
	"io"
	"sync/atomic"
	"unsafe"
)

// ringState is the shared state behind both the Producer path (a
// process-wide singleton, keyed off the package-level bound flag below)
// and a Consumer handle. The region slice is shared for read between
// both sides and mutated only at the header's fixed index fields and at
// the payload offsets those indices name — see spec.md §5's
// shared-resource policy.
type ringState struct {
	region   []byte // header + payload
	payload  []byte // region[l.size:]
	l        layout
	capacity uint32

	interlock Interlock
	mirror    io.Writer
	wake      chan struct{}

	closer func() error
}

// newRingState validates/repairs the header in region (spec.md §4.1–4.2)
// and constructs the shared state backing a Consumer. It performs no
// singleton bookkeeping: callers that need the "only one Producer/
// Consumer pair per process" rule use Bind/BindAddr/BindFile, which wrap
// this with the one-shot flag in bound below. Tests that only care
// about ring algorithms construct ringState directly through this
// function so repeated runs in the same test binary don't collide on the
// global flag.
func newRingState(region []byte, cfg options) (*ringState, error) {
	l := layoutFor(cfg.ecc64)
	if len(region) < l.size+MinPayload {
		return nil, ErrRegionTooSmall
	}

	capacity := uint32(len(region) - l.size)
	if cfg.ecc64 {
		capacity -= capacity % granuleSize
	}
	if capacity < MinPayload {
		return nil, ErrRegionTooSmall
	}

	payload := region[l.size : int(l.size)+int(capacity)]

	if !l.recover(region, capacity) {
		l.reinit(region, capacity)
	}

	state := &ringState{
		region:    region,
		payload:   payload,
		l:         l,
		capacity:  capacity,
		interlock: cfg.interlock,
		mirror:    cfg.mirror,
	}
	if cfg.asyncAwait {
		state.wake = make(chan struct{}, 1)
	}
	return state, nil
}

// bound guards the process-wide producer singleton: Bind/BindAddr/
// BindFile may succeed exactly once per process (spec.md §4.1 "atomically
// transitions a process-wide 'initialized' flag from false to true").
var bound atomic.Bool

// boundState holds the singleton ringState once bound, so the
// package-level Write below (the "global log sink" of spec.md §4.4) has
// something to write into without every call site threading a handle
// through.
var boundState atomic.Pointer[ringState]

// Bind performs the one-shot init described in spec.md §4.1 over an
// already-obtained byte slice and returns the unique Consumer handle.
// Calling Bind (or BindAddr, or BindFile) a second time in the same
// process returns ErrAlreadyInitialized.
func Bind(region []byte, opts ...Option) (*Consumer, error) {
	if !bound.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}
	state, err := newRingState(region, resolveOptions(opts))
	if err != nil {
		bound.Store(false)
		return nil, err
	}
	boundState.Store(state)
	return &Consumer{state: state}, nil
}

// BindAddr resolves the externally supplied [start, end) address range —
// the literal link-time contract of spec.md §6 — into a Consumer. This
// is the one place a raw pointer-to-slice cast is irreducible: a real MCU
// linker script cannot hand Go anything but two addresses.
func BindAddr(start, end uintptr, opts ...Option) (*Consumer, error) {
	region, err := addrRegion(start, end)
	if err != nil {
		return nil, err
	}
	return Bind(region, opts...)
}

// addrRegion reinterprets [start, end) as a []byte. Split out from
// BindAddr so its address arithmetic can be tested without going through
// the process-wide singleton.
func addrRegion(start, end uintptr) ([]byte, error) {
	if end <= start {
		return nil, ErrInvalidRegion
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(start)), int(end-start)), nil //nolint:govet
}

// Write is the producer-path entry point a global log sink calls from
// any execution context, including nested interrupt handlers of any
// priority (spec.md §4.4). Before Bind/BindAddr/BindFile has succeeded,
// Write silently drops data — the same "no errors observable" policy the
// hot path uses for every other anomaly.
func Write(data []byte) {
	state := boundState.Load()
	if state == nil {
		return
	}
	state.write(data)
}
