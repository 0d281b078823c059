package persist

import (
	"io"
	"sync"
)

// Interlock is the critical-section primitive the producer path uses to
// serialize grant acquisition/commit against itself, and the consumer
// path uses for the handful of words it writes to tail/tail_mirror/
// checksum. On a real MCU this should be backed by the platform's
// interrupt-mask (e.g. "disable IRQs for the duration of Lock/Unlock");
// the default, used by Bind's host/simulation backends, is a plain
// *sync.Mutex, which gives the same mutual-exclusion guarantee without
// the real-time progress guarantee a true interrupt mask provides.
type Interlock interface {
	Lock()
	Unlock()
}

// options collects the resolved configuration for a Bind call. Built by
// applying Option values over sane defaults, matching the shape (if not
// the mechanism) of paultag-go-diskring's Options struct.
type options struct {
	ecc64      bool
	mirror     io.Writer
	asyncAwait bool
	interlock  Interlock
}

func resolveOptions(opts []Option) options {
	cfg := options{
		interlock: &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a Bind/BindAddr/BindFile call.
type Option func(*options)

// WithECC64 pads the header and every grant to 8-byte boundaries so each
// word lands in its own ECC granule (spec.md §4.2/§6 "ecc-64bit"). This
// increases header size (32 → 56 bytes) and slightly reduces effective
// payload capacity.
func WithECC64() Option {
	return func(cfg *options) { cfg.ecc64 = true }
}

// WithMirror additionally copies every committed write to w, synchronously,
// after the ring commit (spec.md §6 "rtt"). w.Write is called from
// whatever context called the producer write path, including interrupt
// context on real hardware, so it must not block or allocate; errors are
// discarded, matching the "no errors observable" rule of the write path.
func WithMirror(w io.Writer) Option {
	return func(cfg *options) { cfg.mirror = w }
}

// WithAsyncAwait enables the readiness-signal facet (spec.md §4.6):
// without it, WaitNotEmpty returns ErrAsyncAwaitDisabled immediately and
// the producer skips the (cheap, but not free) non-blocking wake send.
func WithAsyncAwait() Option {
	return func(cfg *options) { cfg.asyncAwait = true }
}

// WithInterlock overrides the default *sync.Mutex interlock, e.g. to
// supply a real interrupt-mask implementation on a bare-metal target.
func WithInterlock(l Interlock) Option {
	return func(cfg *options) { cfg.interlock = l }
}
