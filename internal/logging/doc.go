// Package logging configures structured slog output for zen.
//
// Logs are JSON lines written to ~/.zenith/logs/zen.log and rotated by size.
// Interactive commands may mirror them to stderr; the MCP server never does,
// since stdio carries the protocol stream.
package logging
