//go:build !unix

package persist

import "errors"

// BindFile is only available on unix-like hosts, where mmap is used to
// back the simulated region with a real file. On other platforms, use
// Bind with a plain []byte instead.
func BindFile(path string, size int, opts ...Option) (*Consumer, error) {
	return nil, errors.New("persist: BindFile requires a unix host")
}
