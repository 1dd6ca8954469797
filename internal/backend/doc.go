// Package backend is the request layer between the front-end and the Django
// backend.
//
// # Overview
//
// Every functional call (login, registration, restaurant listing, cart
// mutation, address lookup, rider status, verification codes, pending order
// count) follows the same path:
//
//  1. Resolve the base URL through the resolver
//  2. Build the full URL by concatenating base and the fixed path
//  3. Send the request with a bounded timeout and JSON headers
//  4. Fold the outcome into an Envelope
//
// # Headers
//
// All requests carry:
//   - Content-Type: application/json
//   - Accept: application/json
//   - X-Requested-With: XMLHttpRequest (Django's is_ajax marker)
//   - User-Agent: courier/0.1
//   - X-Request-ID: a fresh UUID
//
// # Envelope Contract
//
// Callers never see transport errors. Each call returns an Envelope:
//
//	{success: bool, message?: string, error?: string, data?: any, ...fields}
//
// A 2xx object that carries "success" is passed through unchanged. A 2xx bare
// array, or an object without "success", is wrapped as {success: true, data}.
//
// # Failures
//
//   - Resolver exhausted: {success:false, error:"No working URL found",
//     message:"Cannot reach Django server!"}
//   - Network error or timeout: error describes the failed request
//   - Non-2xx: error is the backend's own error text when the body is an
//     envelope, otherwise "api <path> returned status <code>"
//   - Malformed JSON: error starts with "decode response"
//
// Every failure after a successful resolve invalidates the base URL it used
// (only if it is still the cached one) so the next call resolves again from
// the first candidate. A call whose own context was cancelled or expired fails with
// an error starting "request cancelled" and leaves the cache alone. A 2xx
// envelope with success=false is the backend's answer, not a transport
// failure, and also leaves the cache alone.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package backend
