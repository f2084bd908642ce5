// Package workflow runs queued verification jobs in the background.
//
// The Manager starts a fixed number of workers. Each worker claims the oldest
// pending job, hands it to the configured stage handler while a heartbeat
// keeps the job's lease fresh, and persists the outcome. Retryable failures
// (timeouts and transient network errors) go back to pending until the job
// runs out of attempts; everything else fails the job. One worker also
// reclaims jobs whose heartbeat has gone stale, which covers a daemon that
// died mid-job.
//
// Finished verdicts and failures are published through the notifications
// service; the notification config decides what is actually sent.
package workflow
