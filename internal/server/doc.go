// Package server implements the WebSocket endpoint for audio analysis and the
// HTTP API for monitoring and management. It handles per-connection message
// dispatch, session registration, and metrics collection.
package server
