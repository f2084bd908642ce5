// Package api defines the wire-format types shared by the HTTP daemon and the
// CLI. It translates queue records and workflow diagnostics into DTOs so
// consumers never depend on internal types.
//
// Job results use camelCase JSON tags. Structured result columns (evidence,
// contexts, issues) are passed through as json.RawMessage to avoid decoding
// and re-encoding them on every request. Timestamps are RFC3339 with
// milliseconds in UTC.
//
// The submission and health payloads keep the snake_case field names that
// existing clients of the verification endpoint already send and read.
package api
