// Package session provides WebSocket session registry and lifecycle handling.
// It tracks concurrent client connections, per-session message counters, and
// automatic cleanup of idle sessions based on a configurable timeout.
package session
