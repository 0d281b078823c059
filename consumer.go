package persist

// Consumer is the single read side of a bound region. It is obtained
// once, from Bind/BindAddr/BindFile, and exclusively owns the tail
// cursor (spec.md §3 "Ownership"): exactly one Consumer exists per bound
// region, and only one Grant from it should be live at a time.
type Consumer struct {
	state *ringState
}

// Read returns a Grant exposing up to two contiguous spans covering the
// bytes currently committed and unreleased. It never blocks and may
// return an empty Grant. Grounded on paultag-go-diskring's Read
// (single-owner, advance-on-success), generalized to the zero-copy
// two-span contract of spec.md §4.5 (itself grounded on shmring.go's
// ReadAcquire/ReadRelease).
func (c *Consumer) Read() *Grant {
	head := c.state.loadHead()
	tail := c.state.loadTail()
	p1, p2 := readableSpans(c.state.payload, head, tail, c.state.capacity)
	return &Grant{state: c.state, tail: tail, p1: p1, p2: p2}
}

// IsEmpty reports whether there are currently zero readable bytes.
func (c *Consumer) IsEmpty() bool {
	return usedBytes(c.state.loadHead(), c.state.loadTail(), c.state.capacity) == 0
}

// Len returns the number of currently readable bytes.
func (c *Consumer) Len() int {
	return int(usedBytes(c.state.loadHead(), c.state.loadTail(), c.state.capacity))
}

// HasPanicFrame reports whether the "panic frame present" header bit is
// set. The core never sets this bit itself (spec.md §9): it is here for
// a panic-handler collaborator, via SetPanicFrame, to communicate across
// the reset.
func (c *Consumer) HasPanicFrame() bool {
	return c.state.l.hasPanicFrame(c.state.region)
}

// SetPanicFrame sets or clears the "panic frame present" header bit.
func (c *Consumer) SetPanicFrame(present bool) {
	c.state.l.setPanicFrame(c.state.region, present)
}

// Close releases any host-side resources backing the region (currently,
// only BindFile's mmap). This has no equivalent on the real embedded
// target, where the region lives for the power domain's lifetime
// (spec.md §3 "Teardown: none"); it exists purely so host-simulation
// tests and tools don't leak file descriptors.
func (c *Consumer) Close() error {
	if c.state.closer == nil {
		return nil
	}
	return c.state.closer()
}

// Grant is a borrowed, possibly-wrapped view over readable bytes
// (spec.md §4.5). Exactly one live Grant is expected per Consumer at a
// time; dropping one without calling Release commits nothing.
type Grant struct {
	state *ringState
	tail  uint32
	p1    []byte
	p2    []byte
}

// Bufs returns the grant's primary and (possibly nil) secondary spans,
// in read order.
func (g *Grant) Bufs() (primary, secondary []byte) {
	return g.p1, g.p2
}

// Len returns the total number of bytes across both spans.
func (g *Grant) Len() int {
	return len(g.p1) + len(g.p2)
}

// IsEmpty reports whether the grant covers zero bytes.
func (g *Grant) IsEmpty() bool {
	return g.Len() == 0
}

// Release commits consumption of the first n bytes across the grant's
// spans, advancing the consumer's tail. n greater than the grant's
// length is clamped (spec.md §4.5 / §7); n less than the length leaves
// the residual bytes readable from the grant's own remaining spans and
// from any subsequent Read.
func (g *Grant) Release(n int) {
	total := g.Len()
	if n <= 0 {
		return
	}
	if n > total {
		n = total
	}

	newTail := g.tail + uint32(n)

	g.state.interlock.Lock()
	g.state.storeTail(newTail)
	g.state.interlock.Unlock()

	g.tail = newTail
	if n <= len(g.p1) {
		g.p1 = g.p1[n:]
	} else {
		rem := n - len(g.p1)
		g.p1 = nil
		g.p2 = g.p2[rem:]
	}
}
