// Package client talks to a running visualverify daemon over its HTTP API.
//
// The CLI uses it for commands that need live daemon state (worker status,
// stage health) rather than the queue database, which it reads directly.
package client
