// Package httpserver provides the web API for browser-based code execution.
//
// It exposes a small REST surface (list languages, health, one-shot run) and
// a WebSocket endpoint that streams output lines as they are produced,
// followed by a terminal result message. The REST run endpoint collects the
// same lines and returns them in one response body.
//
// The server is mounted on a chi router and is started only for the http and
// web transports.
package httpserver
