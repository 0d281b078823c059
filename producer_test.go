package persist

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// Wraparound — spec.md §8: capacity 32, write 20 bytes of 0x01, release
// 20, write 20 bytes of 0x02, read back exactly 20 bytes of 0x02 split
// across the wrap.
func TestScenarioWraparound(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+32)

	testWrite(c, bytes.Repeat([]byte{0x01}, 20))
	first := drainAll(c)
	require.Len(t, first, 20)

	testWrite(c, bytes.Repeat([]byte{0x02}, 20))
	g := c.Read()
	p1, p2 := g.Bufs()
	got := append(append([]byte{}, p1...), p2...)
	require.Equal(t, bytes.Repeat([]byte{0x02}, 20), got)
	g.Release(g.Len())
}

// Overflow — spec.md §8: capacity 16, write bytes 0..9, then 10..19,
// consumer sees exactly bytes 4..19 (16 bytes, the most recent).
func TestScenarioOverflow(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+16)

	first := make([]byte, 10)
	for i := range first {
		first[i] = byte(i)
	}
	second := make([]byte, 10)
	for i := range second {
		second[i] = byte(10 + i)
	}

	testWrite(c, first)
	testWrite(c, second)

	got := drainAll(c)
	want := make([]byte, 16)
	for i := range want {
		want[i] = byte(4 + i)
	}
	require.Equal(t, want, got)
}

// Overflow advances tail by exactly the shortfall, no more, no less
// (spec.md §8 invariant 6).
func TestOverflowAdvancesTailByExactShortfall(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+16)

	testWrite(c, bytes.Repeat([]byte{0xAA}, 12)) // used=12, free=4
	tailBefore := c.state.loadTail()

	testWrite(c, bytes.Repeat([]byte{0xBB}, 10)) // needs 6 more than free(4): shortfall=6
	tailAfter := c.state.loadTail()

	require.EqualValues(t, 6, tailAfter-tailBefore)
	require.EqualValues(t, 16, c.Len())
}

// A write exactly equal to capacity fills the whole ring and jumps tail
// to the old head (spec.md §9 Open Question, resolved as stated).
func TestWriteExactlyCapacityFillsRing(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+16)

	testWrite(c, bytes.Repeat([]byte{0x01}, 4))
	headBefore := c.state.loadHead()

	testWrite(c, bytes.Repeat([]byte{0x02}, 16))

	require.EqualValues(t, 16, c.Len())
	require.EqualValues(t, headBefore, c.state.loadTail())
	got := drainAll(c)
	require.Equal(t, bytes.Repeat([]byte{0x02}, 16), got)
}

// A write larger than capacity is dropped entirely, not truncated
// (spec.md §4.4: "behavior otherwise is to drop the write").
func TestOversizeWriteIsDropped(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+16)

	testWrite(c, bytes.Repeat([]byte{0x01}, 4))
	testWrite(c, bytes.Repeat([]byte{0x02}, 17)) // > capacity(16)

	require.EqualValues(t, 4, c.Len())
	got := drainAll(c)
	require.Equal(t, bytes.Repeat([]byte{0x01}, 4), got)
}

func TestZeroLengthWriteIsNoop(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+16)
	headBefore := c.state.loadHead()

	testWrite(c, nil)

	require.Equal(t, headBefore, c.state.loadHead())
	require.True(t, c.IsEmpty())
}

func TestMirrorReceivesCommittedBytes(t *testing.T) {
	var mirror bytes.Buffer
	c := newTestConsumer(t, headerSizePlain+32, WithMirror(&mirror))

	testWrite(c, []byte("hello"))
	require.Equal(t, "hello", mirror.String())
}

func TestMirrorNotCalledForDroppedWrite(t *testing.T) {
	var mirror bytes.Buffer
	c := newTestConsumer(t, headerSizePlain+16, WithMirror(&mirror))

	testWrite(c, bytes.Repeat([]byte{0x7E}, 17)) // > capacity

	require.Equal(t, 0, mirror.Len())
}

// Readiness signal: every empty→non-empty transition wakes a registered
// waiter exactly once (spec.md §8 invariant 7).
func TestReadinessSignalWakesOnEmptyToNonEmpty(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+32, WithAsyncAwait())

	select {
	case <-c.state.wake:
		t.Fatal("wake channel should start empty")
	default:
	}

	testWrite(c, []byte("x"))

	select {
	case <-c.state.wake:
	default:
		t.Fatal("expected a wake signal on empty->non-empty transition")
	}

	// A second write while already non-empty must not latch a second
	// wake (edge-coalesced, not level-triggered).
	testWrite(c, []byte("y"))
	select {
	case <-c.state.wake:
		t.Fatal("did not expect a second wake while already non-empty")
	default:
	}
}

func TestWaitNotEmptyDisabledByDefault(t *testing.T) {
	c := newTestConsumer(t, headerSizePlain+32)
	err := c.WaitNotEmpty(context.Background())
	require.ErrorIs(t, err, ErrAsyncAwaitDisabled)
}

// With WithECC64, every grant is rounded up to the next 8-byte granule:
// a 30-byte write advances head by 32 and the consumer observes the 30
// real bytes followed by 2 zero-filled padding bytes, not just the 30
// bytes that were written. Round-trips correctly across a wraparound too.
func TestECC64RoundTripAndWraparound(t *testing.T) {
	c := newTestConsumer(t, headerSizeECC+40, WithECC64())
	require.EqualValues(t, 40, c.state.capacity) // already a multiple of 8

	testWrite(c, bytes.Repeat([]byte{0x11}, 30))
	require.EqualValues(t, 32, c.Len()) // rounded up from 30 to the next granule
	got1 := drainAll(c)
	require.Len(t, got1, 32)
	require.Equal(t, bytes.Repeat([]byte{0x11}, 30), got1[:30])
	require.Equal(t, []byte{0, 0}, got1[30:])

	testWrite(c, bytes.Repeat([]byte{0x22}, 30))
	got2 := drainAll(c)
	require.Len(t, got2, 32)
	require.Equal(t, bytes.Repeat([]byte{0x22}, 30), got2[:30])
	require.Equal(t, []byte{0, 0}, got2[30:])

	require.True(t, layoutFor(true).valid(c.state.region, c.state.capacity))
}
