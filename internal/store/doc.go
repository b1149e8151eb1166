// Package store holds the latest status snapshot of every configured server.
//
// This package is internal to serverboard. The cache is keyed by server
// identifier; the key set is fixed when the store is created and iteration
// follows the configured order. Entries are replaced wholesale on every
// successful fetch and never expire, so a server that keeps failing shows
// its last known good record (or nothing, if it never succeeded).
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Entry]: A cached record with the time it was fetched
//
// Subscribers receive every update on a buffered channel with non-blocking
// sends; slow subscribers miss updates rather than stall the writer.
package store
