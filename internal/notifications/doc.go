// Package notifications delivers verification events via ntfy.
//
// NewService returns an ntfy publisher when a topic URL is configured and a
// no-op otherwise. Events cover finished verdicts, failed jobs, and a manual
// test message; the notification config decides which of them are sent, so
// callers publish unconditionally.
package notifications
