package persist

import (
	"encoding/binary"
	"hash/crc32"
)

// Header field layout. Without ECC padding, the header is 32 bytes and
// every field is packed directly after the last. With ECC padding, head,
// tail, both mirrors and the checksum each get their own 8-byte granule so
// a partial-word write cannot trip an adjacent field's ECC check on
// readback. Magic, version and flags share the first granule and capacity
// sits alone in the second, so a runtime update of flags (the panic-frame
// bit) rewrites part of the granule it shares with magic and version.
const (
	fieldMagic    = 0
	fieldVersion  = 4
	fieldFlags    = 6
	fieldCapacity = 8

	headerSizePlain = 32
	headerSizeECC   = 56

	magicSize   = 4
	granuleSize = 8
)

// magicValue identifies a region that has been initialized by this
// package. Regions holding anything else (including all-zero or all-0xFF
// cold RAM) are treated as uninitialized.
var magicValue = [magicSize]byte{'D', 'L', 'P', '1'}

const headerVersion = 1

// Flag bits stored in the header's flags field.
const (
	flagPanicFrame uint16 = 1 << 0
)

// layout describes where each runtime-mutable field lives for a given
// header mode (plain or ECC-padded). Only head/tail/mirrors/checksum
// move between the two modes; magic/version/flags/capacity always sit in
// the first 12 bytes.
type layout struct {
	ecc        bool
	size       int
	head       int
	tail       int
	headMirror int
	tailMirror int
	checksum   int
	// checksumLen is the number of leading header bytes the checksum is
	// computed over (everything before the checksum field itself).
	checksumLen int
}

func layoutFor(ecc bool) layout {
	if !ecc {
		return layout{
			ecc:         false,
			size:        headerSizePlain,
			head:        12,
			tail:        16,
			headMirror:  20,
			tailMirror:  24,
			checksum:    28,
			checksumLen: 28,
		}
	}
	return layout{
		ecc:         true,
		size:        headerSizeECC,
		head:        2 * granuleSize,
		tail:        3 * granuleSize,
		headMirror:  4 * granuleSize,
		tailMirror:  5 * granuleSize,
		checksum:    6 * granuleSize,
		checksumLen: 6 * granuleSize,
	}
}

func (l layout) checksumOf(region []byte) uint32 {
	return crc32.ChecksumIEEE(region[:l.checksumLen])
}

func (l layout) rewriteChecksum(region []byte) {
	binary.LittleEndian.PutUint32(region[l.checksum:], l.checksumOf(region))
}

func (l layout) magicVersionCapacityMatch(region []byte, wantCapacity uint32) bool {
	if len(region) < l.size {
		return false
	}
	if [magicSize]byte(region[fieldMagic:fieldMagic+magicSize]) != magicValue {
		return false
	}
	if binary.LittleEndian.Uint16(region[fieldVersion:]) != headerVersion {
		return false
	}
	return binary.LittleEndian.Uint32(region[fieldCapacity:]) == wantCapacity
}

func (l layout) mirrorsAgree(region []byte) bool {
	head := binary.LittleEndian.Uint32(region[l.head:])
	headMirror := binary.LittleEndian.Uint32(region[l.headMirror:])
	tail := binary.LittleEndian.Uint32(region[l.tail:])
	tailMirror := binary.LittleEndian.Uint32(region[l.tailMirror:])
	return head == headMirror && tail == tailMirror
}

func (l layout) checksumMatches(region []byte) bool {
	return binary.LittleEndian.Uint32(region[l.checksum:]) == l.checksumOf(region)
}

func (l layout) withinCapacity(region []byte, capacity uint32) bool {
	head := binary.LittleEndian.Uint32(region[l.head:])
	tail := binary.LittleEndian.Uint32(region[l.tail:])
	return head-tail <= capacity
}

// valid reports whether the header currently stored in region is fully,
// strictly self-consistent — spec.md §4.2 step 2's accept condition,
// with no repair applied. Used standalone by tests; newRingState uses
// the more lenient recover below, which additionally tolerates and
// repairs a torn mirror.
func (l layout) valid(region []byte, wantCapacity uint32) bool {
	return l.magicVersionCapacityMatch(region, wantCapacity) &&
		l.mirrorsAgree(region) &&
		l.checksumMatches(region) &&
		l.withinCapacity(region, wantCapacity)
}

// recover implements spec.md §4.2 in full, including torn-write
// detection: a reset can only ever strike between a writer's index write
// and its mirror write (never invent a larger value from nothing), so a
// head/tail ≠ its mirror is diagnostic of exactly that — not of generic
// corruption — and is repaired by taking the smaller value rather than
// discarding the whole buffer. Any other checksum failure (mirrors agree
// but bytes don't match what they should) is treated as real corruption
// and rejected, matching spec.md §7's "corrupt header on boot: re-
// initialize silently".
func (l layout) recover(region []byte, wantCapacity uint32) bool {
	if !l.magicVersionCapacityMatch(region, wantCapacity) {
		return false
	}

	if !l.mirrorsAgree(region) {
		l.repairTornMirrors(region)
		return l.withinCapacity(region, wantCapacity)
	}

	if !l.checksumMatches(region) {
		return false
	}
	return l.withinCapacity(region, wantCapacity)
}

// reinit writes a fresh, empty header: head = tail = 0, flags cleared,
// magic/version/capacity set, checksum recomputed. This discards any
// prior payload contents (spec.md §4.2 step 3 / §7 "corrupt header on
// boot").
func (l layout) reinit(region []byte, capacity uint32) {
	copy(region[fieldMagic:], magicValue[:])
	binary.LittleEndian.PutUint16(region[fieldVersion:], headerVersion)
	binary.LittleEndian.PutUint16(region[fieldFlags:], 0)
	binary.LittleEndian.PutUint32(region[fieldCapacity:], capacity)
	binary.LittleEndian.PutUint32(region[l.head:], 0)
	binary.LittleEndian.PutUint32(region[l.tail:], 0)
	binary.LittleEndian.PutUint32(region[l.headMirror:], 0)
	binary.LittleEndian.PutUint32(region[l.tailMirror:], 0)
	l.rewriteChecksum(region)
}

// repairTornMirrors implements spec.md §4.2's torn-write rule: the
// smaller of an index and its mirror is the trustworthy value, since a
// reset striking between the two writes can only ever leave the mirror
// behind, never ahead.
func (l layout) repairTornMirrors(region []byte) {
	head := binary.LittleEndian.Uint32(region[l.head:])
	headMirror := binary.LittleEndian.Uint32(region[l.headMirror:])
	if head != headMirror {
		safe := minu32(head, headMirror)
		binary.LittleEndian.PutUint32(region[l.head:], safe)
		binary.LittleEndian.PutUint32(region[l.headMirror:], safe)
	}

	tail := binary.LittleEndian.Uint32(region[l.tail:])
	tailMirror := binary.LittleEndian.Uint32(region[l.tailMirror:])
	if tail != tailMirror {
		safe := minu32(tail, tailMirror)
		binary.LittleEndian.PutUint32(region[l.tail:], safe)
		binary.LittleEndian.PutUint32(region[l.tailMirror:], safe)
	}

	l.rewriteChecksum(region)
}

// setPanicFrame and hasPanicFrame expose the "panic frame present" bit.
// The core never sets this bit itself (spec.md §9 Open Question #2); it
// is here purely for a panic-handler collaborator to use.
func (l layout) setPanicFrame(region []byte, present bool) {
	flags := binary.LittleEndian.Uint16(region[fieldFlags:])
	if present {
		flags |= flagPanicFrame
	} else {
		flags &^= flagPanicFrame
	}
	binary.LittleEndian.PutUint16(region[fieldFlags:], flags)
	l.rewriteChecksum(region)
}

func (l layout) hasPanicFrame(region []byte) bool {
	flags := binary.LittleEndian.Uint16(region[fieldFlags:])
	return flags&flagPanicFrame != 0
}

func minu32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
