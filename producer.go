package persist

import (
	"encoding/binary"
)

// write implements spec.md §4.4's producer algorithm: reentrant-safe
// against itself via the interlock, never observable as an error, and
// overwriting the oldest unreleased data when the incoming write does
// not fit. It may be called from any execution context, including
// nested interrupt handlers — it must never block or allocate.
func (s *ringState) write(data []byte) {
	n := uint32(len(data))
	if n == 0 {
		return
	}

	// In ecc64 mode, every grant is rounded up to a granule boundary
	// (spec.md §4.2: "the payload writer rounds grants up to 8-byte
	// boundaries so partial-word writes do not induce ECC errors"), so
	// head always advances by a whole number of granules and the next
	// write never starts mid-granule. The granule remainder past the
	// real data is zero-filled, not left as stale payload bytes.
	grantLen := n
	if s.l.ecc {
		grantLen = roundUpGranule(n)
	}

	// spec.md §4.4: a write larger than capacity never reaches here in
	// practice (the encoder truncates first); if it does anyway, the
	// core drops it rather than overrun the ring.
	if grantLen > s.capacity {
		return
	}

	s.interlock.Lock()

	head := s.loadHead()
	tail := s.loadTail()
	wasEmpty := usedBytes(head, tail, s.capacity) == 0

	var shortfall uint32
	if free := freeBytes(head, tail, s.capacity); grantLen > free {
		shortfall = grantLen - free
	}
	// writeTail is where the payload for *this* write begins, logically;
	// it is only published to the header's tail field in step 7 below,
	// after the head commit in step 6.
	writeTail := tail + shortfall

	primary, secondary := writableSpans(s.payload, head, writeTail, s.capacity)
	// Trim the free spans down to this write's grant, so only the grant's
	// own filler is zeroed below.
	if uint32(len(primary)) >= grantLen {
		primary, secondary = primary[:grantLen], nil
	} else {
		secondary = secondary[:grantLen-uint32(len(primary))]
	}
	m := copy(primary, data)
	m += copy(secondary, data[m:])
	zeroGrantPadding(primary, secondary, m)

	newHead := head + grantLen
	s.storeHead(newHead)
	if shortfall > 0 {
		s.storeTail(writeTail)
	}

	s.interlock.Unlock()

	if s.mirror != nil {
		_, _ = s.mirror.Write(data[:m])
	}
	if wasEmpty && m > 0 {
		s.signalReadable()
	}
}

// roundUpGranule rounds n up to the next multiple of granuleSize.
func roundUpGranule(n uint32) uint32 {
	if rem := n % granuleSize; rem != 0 {
		n += granuleSize - rem
	}
	return n
}

// zeroGrantPadding clears the bytes of a grant past the copied bytes
// (from) through the end of primary+secondary: the granule filler an
// ecc64 grant carries past its real data, which must not leak whatever
// previously occupied those payload bytes.
func zeroGrantPadding(primary, secondary []byte, from int) {
	if from < len(primary) {
		clear(primary[from:])
		clear(secondary)
		return
	}
	clear(secondary[from-len(primary):])
}

// loadHead/loadTail read the header's index fields with acquire
// semantics: the consumer reads head without holding the interlock, so
// these must be real atomic loads, not plain slice indexing, to pair
// with the release stores below (spec.md §4.2 "acquire/release
// discipline").
func (s *ringState) loadHead() uint32 {
	return loadu32(s.region[s.l.head:])
}

func (s *ringState) loadTail() uint32 {
	return loadu32(s.region[s.l.tail:])
}

// storeHead publishes a new head: index, then mirror, then checksum, in
// that order (spec.md §4.4 step 6), with a release store on the index
// itself so a consumer observing the new head via loadHead is guaranteed
// to observe the payload bytes written before it.
func (s *ringState) storeHead(v uint32) {
	storeu32(s.region[s.l.head:], v)
	binary.LittleEndian.PutUint32(s.region[s.l.headMirror:], v)
	s.l.rewriteChecksum(s.region)
}

// storeTail publishes a new tail under the same interlock window used
// for the producer's overflow path (spec.md §4.4 step 7 / §4.5 "tail
// updates from the consumer must be performed under interrupt mask as
// well, but only for the few words of the tail update itself").
func (s *ringState) storeTail(v uint32) {
	storeu32(s.region[s.l.tail:], v)
	binary.LittleEndian.PutUint32(s.region[s.l.tailMirror:], v)
	s.l.rewriteChecksum(s.region)
}
