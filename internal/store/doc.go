// Package store provides SQLite-backed storage for serialized program
// snapshots.
//
// A snapshot is the notation form of a program together with its
// fingerprint, a label and a logical sequence number.
//
// # Invariants
//
// Idempotent saves
//   - UNIQUE(fingerprint, label): saving the same graph under the same label
//     twice returns the first snapshot
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - List and FindByFingerprint return ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Snapshot ids are UUIDv7 strings unless a generator is supplied.
package store
