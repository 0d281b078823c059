package persist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Torn head — spec.md §8: capacity 64, write 10 bytes, desynchronize
// head_mirror to an older value, call init (newRingState) again over the
// same bytes: the consumer sees at most the safely-mirrored prefix, and
// no invariant is violated.
func TestScenarioTornHead(t *testing.T) {
	region := make([]byte, headerSizePlain+64)
	state, err := newRingState(region, resolveOptions(nil))
	require.NoError(t, err)
	c := &Consumer{state: state}

	testWrite(c, []byte("0123456789"))
	require.EqualValues(t, 10, c.Len())

	// Desynchronize head_mirror to an older value, simulating a reset
	// that struck between the index write and the mirror write.
	l := layoutFor(false)
	storeu32(region[l.headMirror:], 3)
	l.rewriteChecksum(region)

	reinit, err := newRingState(region, resolveOptions(nil))
	require.NoError(t, err)
	reconsumer := &Consumer{state: reinit}

	require.LessOrEqual(t, reconsumer.Len(), 10)
	require.LessOrEqual(t, int(reinit.loadHead()-reinit.loadTail()), int(reinit.capacity))

	got := drainAll(reconsumer)
	require.Equal(t, []byte("012"), got)
}

// Corruption that isn't a torn mirror — mirrors agree, but the checksum
// doesn't match what they imply — is not repairable the way a torn
// mirror is, and must fall back to a full reinit rather than trusting
// the (agreeing but wrong) index values.
func TestScenarioNonTornCorruptionReinitializes(t *testing.T) {
	region := make([]byte, headerSizePlain+64)
	state, err := newRingState(region, resolveOptions(nil))
	require.NoError(t, err)
	c := &Consumer{state: state}

	testWrite(c, []byte("0123456789"))
	require.EqualValues(t, 10, c.Len())

	l := layoutFor(false)
	region[l.checksum] ^= 0xFF // corrupt the checksum alone; mirrors still agree

	reinit, err := newRingState(region, resolveOptions(nil))
	require.NoError(t, err)
	reconsumer := &Consumer{state: reinit}

	require.True(t, reconsumer.IsEmpty())
}

// Invariant 1 (spec.md §8): 0 <= used_bytes <= capacity after every
// operation, across an interleaved sequence of writes and partial
// releases.
func TestInvariantUsedBytesNeverExceedsCapacity(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+24)

	sizes := []int{5, 30, 3, 40, 1, 24, 0, 17}
	for i, n := range sizes {
		testWrite(c, make([]byte, n))
		used := c.Len()
		require.GreaterOrEqual(t, used, 0)
		require.LessOrEqual(t, used, int(c.state.capacity), "after write %d of size %d", i, n)

		if used > 0 {
			g := c.Read()
			g.Release(g.Len() / 2)
		}
	}
}

// Invariant 2 (spec.md §8): after writes totaling S, followed by
// draining, the consumer observes at most S bytes, and exactly the
// suffix of length min(S, capacity) of the written stream.
func TestInvariantObservesExactSuffix(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+16)

	var written []byte
	for i := 0; i < 7; i++ {
		chunk := []byte{byte('a' + i), byte('a' + i), byte('a' + i)}
		written = append(written, chunk...)
		testWrite(c, chunk)
	}

	got := drainAll(c)
	require.LessOrEqual(t, len(got), len(written))
	want := written[len(written)-len(got):]
	require.Equal(t, want, got)
	require.Equal(t, 16, len(got)) // capacity
}
