package persist

import (
	"sync/atomic"
	"unsafe"
)

// loadu32/storeu32 perform atomic 32-bit accesses at a byte offset into
// a region slice. The header's head field is written only by the
// producer but read by the consumer without the interlock (and tail,
// written by the consumer and by the producer's overflow path, is read by
// the consumer without it), so plain slice indexing would be a data race even
// though no two contexts ever touch the same byte at the same time in
// practice — these give the acquire/release pairing spec.md §4.2/§4.4
// call for. Grounded in paultag-go-diskring's own raw unsafe.Pointer
// casts over []byte (see its advanceHead/Write), upgraded here from a
// plain dereference to an atomic one.
func loadu32(b []byte) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&b[0])))
}

func storeu32(b []byte, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&b[0])), v)
}
