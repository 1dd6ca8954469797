// Package logtail reads the tail of Courier's log file for the UI log pane.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays bounded
// no matter how large the file grows. ParseLine splits a zap log line (JSON or
// console encoding) into time, level, logger, message and structured fields so
// the UI can style each part.
package logtail
