// Package model defines the synchronized dataset for hacksync.
//
// This package contains type definitions and small value helpers only.
// Every other internal package imports model; model imports nothing internal.
//
// Key design constraints:
//   - The Actor is never part of a Snapshot; it belongs to the session package
//   - JSON tags use the camelCase wire names of the exported snapshot
//   - Timestamps travel as ISO-8601 strings and revive to time.Time
//   - Contact addresses are compared through NormalizeAddress, never raw
package model
