// Package main is the entry point for the polyrun execution server.
//
// Polyrun runs untrusted user code (Python, JavaScript, Ruby, Go, Java, C,
// C++) in ephemeral Docker containers with hard resource limits, streaming
// output line by line as it is produced. The server exposes the engine over
// MCP (stdio or HTTP) or over a web API with WebSocket streaming, selected
// by configuration.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main
