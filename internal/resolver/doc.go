// Package resolver discovers a reachable backend base URL.
//
// # Overview
//
// The backend may be reachable under different addresses depending on how
// the device is networked: the Android emulator's host alias, loopback on a
// simulator, or a LAN address on a physical device. The Resolver tries a
// short, fixed candidate list in order and remembers the first one that
// answers.
//
// # Cache Lifecycle
//
// The cache is a single slot:
//
//	empty ──Resolve (probe ok)──> set ──Invalidate──> empty
//
// Resolve on a populated slot returns immediately without network traffic.
// Request wrappers call InvalidateIf with the URL they used as soon as a call
// through it fails, so the next Resolve starts over at the first candidate. A
// stale failure never clears a URL cached after it.
//
// # Probing
//
// Each probe is GET {base}/ bounded by the probe timeout. Any 2xx status
// counts as reachable; the body is ignored. Candidates are never raced in
// parallel and there is no health weighting. When every probe fails Resolve
// returns an error wrapping ErrNoReachableBackend; nothing is cached, so the
// next call probes again.
//
// # Concurrency
//
// Only the cache slot is locked. Callers that hit an empty slot at the same
// time each probe independently; probes are read-only so the duplicate work
// is harmless.
package resolver
