// Package queue persists verification jobs and the verdict cache in SQLite.
//
// The Store manages the database connection, schema initialization, busy
// retries, heartbeat tracking, and stale-job recovery. Jobs move through
// pending -> processing -> completed|failed; the workflow manager is the only
// writer of processing and terminal states while the API and CLI enqueue and
// read.
//
// The image_cache table maps an image's content hash (and the xxhash of the
// URL it was fetched from) to a previous verdict so repeat submissions and
// near-duplicate images can short-circuit the pipeline.
//
// The database is treated as transient storage rather than a long-term
// archive. Schema changes bump schemaVersion; users clear the database to
// adopt the new schema.
package queue
