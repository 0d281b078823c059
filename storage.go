package persist

// Ring Storage translates the byte-level head/tail cursors into physical
// slice offsets within the payload area, handling wraparound. head and
// tail are monotonically increasing counters (mod 2^32, per spec.md §3);
// every other component works purely in terms of these and never indexes
// the payload directly.

// usedBytes returns how many bytes are currently committed and
// unreleased.
func usedBytes(head, tail, capacity uint32) uint32 {
	used := head - tail // wraps correctly mod 2^32
	if used > capacity {
		// Should never happen under the invariant in spec.md §3, but a
		// corrupt/torn snapshot read outside the interlock could briefly
		// observe this; clamp rather than report bogus spans.
		return capacity
	}
	return used
}

// freeBytes returns how many bytes are available for the next write.
func freeBytes(head, tail, capacity uint32) uint32 {
	return capacity - usedBytes(head, tail, capacity)
}

// splitSpan breaks a logical [start, start+length) run into at most two
// physical spans within a capacity-sized ring, honoring wraparound.
func splitSpan(start, length, capacity uint32) (off1, len1, off2, len2 int) {
	if length == 0 {
		return 0, 0, 0, 0
	}
	startMod := start % capacity
	first := capacity - startMod
	if first > length {
		first = length
	}
	off1 = int(startMod)
	len1 = int(first)

	rem := length - first
	if rem > 0 {
		off2 = 0
		len2 = int(rem)
	}
	return
}

// writableSpans returns up to two contiguous free spans within payload,
// starting at head and running for freeBytes(head, tail, capacity)
// bytes: the region the producer may write into without clobbering
// unreleased data.
func writableSpans(payload []byte, head, tail, capacity uint32) (primary, secondary []byte) {
	free := freeBytes(head, tail, capacity)
	off1, len1, off2, len2 := splitSpan(head, free, capacity)
	primary = payload[off1 : off1+len1]
	if len2 > 0 {
		secondary = payload[off2 : off2+len2]
	}
	return
}

// readableSpans returns up to two contiguous live spans within payload,
// starting at tail and running for usedBytes(head, tail, capacity)
// bytes: the region the consumer may read.
func readableSpans(payload []byte, head, tail, capacity uint32) (primary, secondary []byte) {
	used := usedBytes(head, tail, capacity)
	off1, len1, off2, len2 := splitSpan(tail, used, capacity)
	primary = payload[off1 : off1+len1]
	if len2 > 0 {
		secondary = payload[off2 : off2+len2]
	}
	return
}
