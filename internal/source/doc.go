// Package source defines the capability interfaces the hydration pipeline and
// the persistence writer depend on, plus adapters over the concrete media.
//
// A Source is one place a whole snapshot can come from or go to:
//   - Remote: the primary document store (store.Store documents table)
//   - Cache: the local durable cache (kv.Cache snapshot slot)
//   - Seed: the bundled asset, or a file/URL override; read-only
//
// An Overlay is the optional relational store for sponsor-managed
// collections. It never carries a whole snapshot.
//
// Load returns (nil, nil) when the medium holds no data. Any other failure is
// an *Error with code SOURCE_UNAVAILABLE so callers can advance to the next
// source without inspecting driver errors.
package source
