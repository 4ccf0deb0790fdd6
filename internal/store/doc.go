// Package store holds the persistence collaborators of the hub: rooms and
// channels, per-channel message logs, and user tokens.
//
// MemoryStore keeps everything in process memory and is lost on restart.
// SQLiteStore persists the same data through a zombiezen SQLite pool in
// WAL mode. Both serialize appends to one channel so message order is the
// order in which Append returned.
package store
