// Package updates delivers pending-order counts to the rider screens.
//
// A Subscription prefers a WebSocket at {base}/ws/orders/updates/ (the base
// URL comes from the resolver with http swapped for ws and https for wss) and
// falls back to polling the pending-count endpoint when the socket cannot be
// opened or drops abnormally:
//
//	Connecting --open--> Streaming --normal close--> Closed
//	     |                   |
//	     | dial error,       | read error,
//	     | timeout           | abnormal close
//	     v                   v
//	  Polling <--------------+
//	     |
//	     +--Close/ctx--> Closed
//
// Polling never upgrades back to a socket within one subscription. Socket
// problems are logged, not reported; onError only sees poll failures, which
// never stop polling.
//
// Every Update replaces the previous one. Subscribers keep only the latest.
//
// Close is idempotent. Once it returns the socket is closed with a normal
// closure frame, the poll ticker is stopped, and no callback will fire.
package updates
