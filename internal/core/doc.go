// Package core implements the storage provider registry reconciliation
// engine.
//
// A run reads a batch of registration form submissions, each carrying the
// eligibility check results for up to three storage provider ids, and merges
// the valid ones into three tables:
//
//   - organizations: one row per operator, keyed case-insensitively by name
//     and identified by a sequential sp_org_id
//   - listing: one row per storage provider id, never listed twice
//   - processing_log: one row per submission per run, accepted or not
//
// A submission is accepted or rejected as a whole. Rejected submissions are
// handed to a Notifier after the tables are committed.
//
// The Driver holds the algorithm and performs no I/O. Service wraps it with
// table loading and committing through a table.Store, run serialization,
// notification and telemetry.
package core
