// Package store holds the current inventory snapshot.
//
// A Snapshot is built completely (fetch, parse, score) before it is swapped
// in with a single atomic store, so readers see either the previous set or
// the new one, never a mix. Refreshes and pushes are serialized; the last
// one to finish wins.
//
// When a fetch fails the store keeps or clears the current snapshot
// according to its OnError policy and remembers the error for Status.
package store
