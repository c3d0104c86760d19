// Package store provides the SQLite-backed run ledger.
//
// Every delivered transformation appends one row recording what went in
// (rule document MD5, input MD5, seed) and what came out (output hash and
// per-node counts). A seeded run is deterministic, so two rows with the
// same fingerprint and different output hashes mean the engine or its
// environment drifted.
//
// # Conventions
//
//   - Ordering uses the seq column, never recorded_at
//   - Counts are stored as canonical JSON (see ir.MarshalCanonical)
//   - Run ids are random UUIDs; they only identify rows
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
