// Package hydrate populates the canonical store once at process start.
//
// Chain order, first source with data wins:
//  1. remote (skipped when unconfigured)
//  2. local cache
//  3. seed, only while the migration marker is unset. A successful seed is
//     written back to remote and cache and the marker is set permanently.
//
// After whichever branch ran, the sponsor overlay replaces challenges,
// bounties and goodies with the relational rows it returns. When no branch
// produced data the dataset stays empty; that is a valid outcome.
//
// The hydrated flag flips once the chain and overlay finish. If the
// attendee list is still empty at that point, the cache and seed branches
// are tried once more.
package hydrate
