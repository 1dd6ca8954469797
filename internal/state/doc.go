// Package state holds the latest client-side view of the backend for the UI.
//
// The update subscription, the rider status calls, and the restaurant refresh
// write into a Store; the UI reads Snapshot on its own tick. Updates are
// last-write-wins: each delivered order count replaces the previous one.
//
// A poll failure keeps the previous data and only records the error and the
// failure streak, so the UI can keep showing the last known count while
// flagging that it may be stale (see Snapshot.IsOffline).
//
// Snapshot returns copies of slices and errors, so callers may keep or
// mutate them freely. The zero Store is ready to use.
package state
