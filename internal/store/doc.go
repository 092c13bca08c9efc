// Package store provides SQLite-backed durable storage for hacksync.
//
// One database file can hold three independent stores:
//   - Documents: the primary store. The whole dataset snapshot lives in a
//     single JSON row keyed by a fixed id (DocumentID).
//   - Sponsor tables: the secondary relational store for sponsor-managed
//     collections (challenges, bounties, goodies), one row per entity.
//   - KV: string slots for the local durable cache (see package kv).
//
// Configurations normally point each role at a different file; each Open
// creates the full schema so any role works on first use.
//
// # Critical Patterns
//
// Idempotent Inserts:
//   - INSERT ... ON CONFLICT(id) DO NOTHING; the caller learns whether a row
//     was inserted from RowsAffected
//
// Deterministic Query Results:
//   - All list queries use ORDER BY rowid ASC, id ASC COLLATE BINARY so rows
//     come back in insertion order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
