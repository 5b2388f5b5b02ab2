// Package protocol defines the JSON message frames exchanged over the
// WebSocket channel. It handles inbound message parsing and validation,
// sensitivity normalization, and the outbound response shapes.
package protocol
