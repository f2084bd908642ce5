// Package fetch downloads images for verification.
//
// Downloads are bounded by a timeout and a byte limit and present a
// browser-like User-Agent, since several image hosts refuse default Go
// clients. Failures are tagged with the services error markers so the
// workflow can decide between retrying and failing a job.
package fetch
