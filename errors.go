package persist

import "errors"

// ErrAlreadyInitialized is returned by the boot-time entry points (Bind /
// BindAddr / BindFile) once the process-wide region has been bound. Apart
// from it, those entry points report only configuration errors
// (ErrRegionTooSmall, ErrInvalidRegion, and BindFile's file/mmap errors).
// Every other anomaly — a corrupt header, a torn mirror, a producer
// overflow, an over-release — is absorbed silently per spec.md §7.
var ErrAlreadyInitialized = errors.New("persist: region already initialized")

// ErrRegionTooSmall is returned by Bind/BindAddr/BindFile when the
// supplied region cannot hold a header plus a non-trivial payload area.
// This is a configuration-time error (the caller wired up the wrong
// linker symbols or file size), not a runtime anomaly, so it is reported
// rather than absorbed.
var ErrRegionTooSmall = errors.New("persist: region too small for header and payload")

// ErrInvalidRegion is returned by BindAddr when end <= start.
var ErrInvalidRegion = errors.New("persist: end address must be after start address")

// ErrAsyncAwaitDisabled is returned by WaitNotEmpty when the Consumer was
// bound without WithAsyncAwait.
var ErrAsyncAwaitDisabled = errors.New("persist: async-await facet not enabled")

// MinPayload is the smallest payload area size (in bytes) Bind will
// accept, matching spec.md §3's N ≥ HEADER_SIZE + MIN_PAYLOAD rule.
const MinPayload = 16
