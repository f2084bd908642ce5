// Package stage defines the contract between the workflow manager and the
// handlers that process queued jobs, plus the health record they report.
package stage
