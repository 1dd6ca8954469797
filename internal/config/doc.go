// Package config loads Courier's client configuration.
//
// # Overview
//
// Courier needs to know which front-end it is running as (customer or rider),
// which backend base URLs to try, and how long to wait on probes, requests,
// socket connects and poll ticks. Everything else about the backend is
// discovered at runtime by the resolver.
//
// # Resolution Order
//
//  1. Built-in defaults (see Default)
//  2. ~/.config/courier/config.toml, or the path passed to Load
//  3. COURIER_* environment variables
//
// A missing config file is not an error. Later sources only override fields
// they actually set.
//
// # TOML Format
//
//	app = "rider"
//	candidates = ["http://10.0.2.2:8000", "http://192.168.1.20:8000"]
//	probe_timeout = "5s"
//	request_timeout = "10s"
//	connect_timeout = "5s"
//	poll_interval = "5s"
//	log_level = "info"
//	log_format = "json"
//	log_file = "~/.local/share/courier/courier.log"
//	metrics_addr = "127.0.0.1:9464"
//
// # Environment
//
//	COURIER_APP, COURIER_CANDIDATES (comma separated), COURIER_PROBE_TIMEOUT,
//	COURIER_REQUEST_TIMEOUT, COURIER_CONNECT_TIMEOUT, COURIER_POLL_INTERVAL,
//	COURIER_LOG_LEVEL, COURIER_LOG_FORMAT, COURIER_LOG_FILE, COURIER_METRICS_ADDR
//
// # Candidates
//
// Candidate lists depend on how the device reaches the development host
// (emulator alias, loopback, LAN address), so they are configuration rather
// than constants. NormalizeCandidates keeps the configured order, defaults the
// scheme to http, and caps the list at five entries.
package config
