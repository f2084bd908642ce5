// Package daemon hosts the long-running verification service: it holds the
// singleton lock, runs the workflow manager, and serves the HTTP API.
//
// Only one daemon may own a data directory at a time; the lock file lives
// beside the queue database. The HTTP API accepts submissions, reports job
// results and daemon status, and serves a small embedded page for manual
// submissions. When an API token is configured every /api route requires
// "Authorization: Bearer <token>"; /health and the page stay open.
package daemon
