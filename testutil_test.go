package persist

import "testing"

// newTestConsumer builds a Consumer over a fresh in-memory region,
// bypassing the process-wide singleton in Bind so each test gets its own
// independent ring. Producer-side writes in tests go through the
// returned consumer's state directly (c.state.write), since the
// producer path is only reachable from outside this package via the
// package-level Write function tied to that singleton.
func newTestConsumer(t *testing.T, regionSize int, opts ...Option) *Consumer {
	t.Helper()
	state, err := newRingState(make([]byte, regionSize), resolveOptions(opts))
	if err != nil {
		t.Fatalf("newRingState: %v", err)
	}
	return &Consumer{state: state}
}

// testWrite writes data through c's producer path, exactly as the global
// Write function would for a singleton-bound consumer.
func testWrite(c *Consumer, data []byte) {
	c.state.write(data)
}

// drainAll reads and releases every currently-readable byte.
func drainAll(c *Consumer) []byte {
	var out []byte
	for {
		g := c.Read()
		if g.IsEmpty() {
			return out
		}
		p1, p2 := g.Bufs()
		out = append(out, p1...)
		out = append(out, p2...)
		g.Release(g.Len())
	}
}
