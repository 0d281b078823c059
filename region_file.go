//go:build unix

package persist

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// BindFile mmaps a regular file as the region, so that "reset" can be
// simulated by re-running BindFile against the same path: the file's
// bytes survive a process exit the same way the real target's RAM
// survives a reset, letting spec.md §8's warm-boot/cold-boot scenarios
// be exercised as two separate processes instead of two function calls.
//
// If path doesn't exist, or is shorter than size, it is created/grown
// and zero-filled for the new bytes — a cold boot, since zero bytes
// never pass header validation. If it already holds a valid header,
// this is a warm boot: the prior head/tail and payload are preserved.
//
// Grounded on paultag-go-diskring's mmap-backed Ring (ring.go/
// syscall.go), upgraded from its hand-rolled syscall.Syscall6 calls to
// the golang.org/x/sys/unix wrapper used elsewhere in the example pack
// (tinyrange-cc's internal/asm/{amd64,arm64}/exec.go).
func BindFile(path string, size int, opts ...Option) (*Consumer, error) {
	region, closer, err := mmapRegion(path, size)
	if err != nil {
		return nil, err
	}

	consumer, err := Bind(region, opts...)
	if err != nil {
		closer()
		return nil, err
	}
	consumer.state.closer = func() error {
		closer()
		return nil
	}
	return consumer, nil
}

// mmapRegion opens (creating/growing as needed) and mmaps path, returning
// the mapped bytes and a closer that unmaps and closes the file. Split
// out from BindFile so tests can exercise the mmap-persistence behavior
// directly against newRingState, without going through BindFile's call
// to the process-wide Bind singleton.
func mmapRegion(path string, size int) ([]byte, func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("persist: open region file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("persist: stat region file: %w", err)
	}

	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("persist: grow region file: %w", err)
		}
	} else {
		size = int(info.Size())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("persist: mmap region file: %w", err)
	}

	closer := func() {
		_ = unix.Munmap(data)
		_ = f.Close()
	}
	return data, closer, nil
}
