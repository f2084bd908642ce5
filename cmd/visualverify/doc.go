// Command visualverify checks whether an image is being shared with the
// context it actually comes from.
//
// "visualverify verify" runs one check synchronously and prints the verdict.
// "visualverify serve" runs the daemon: a queue of verification jobs processed
// in the background plus an HTTP API. The remaining commands inspect and
// manage the queue database and verdict cache directly, so they work whether
// or not the daemon is running.
package main
