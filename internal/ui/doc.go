// Package ui is Courier's Bubble Tea dashboard.
//
// The screen has four stacked sections:
//
//   - header: app name, resolved backend, update channel state
//   - body: rider app shows the pending order count and online status;
//     customer app shows the restaurant listing
//   - log pane: tail of the courier log file, styled per level
//   - footer: key help from bubbles/help
//
// The model never talks to the backend directly. It reads state.Store
// snapshots on every tick and runs Actions as commands, so a slow backend
// never blocks rendering. One action runs at a time; further presses are
// ignored until it finishes.
//
// Themes (Dracula, Nightfox, Slate) cycle with T and are saved to prefs
// without touching the cached session.
package ui
