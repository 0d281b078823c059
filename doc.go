// Package persist implements a reset-surviving ring buffer for embedded
// logging: a fixed region of RAM, excluded from normal startup
// initialization, holding a self-describing header and a byte ring behind
// it. A single producer (any execution context, including interrupt
// handlers) appends log frames; a single consumer drains them for
// transmission off-device. The header and its head/tail cursors are laid
// out so that a reset striking at any instruction boundary leaves the
// region in a recoverable state: either the prior contents are intact
// ("warm boot") or the header is detectably corrupt and is reinitialized
// empty ("cold boot").
//
// The region itself, and how its bytes are obtained, is the caller's
// concern: Bind accepts any in-process []byte, BindAddr reinterprets a
// pair of raw addresses (the shape a real MCU linker script hands you),
// and BindFile mmaps a regular file so the reset-survival behavior can be
// exercised on a development host without real hardware.
package persist
