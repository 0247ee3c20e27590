// Package catalog persists the media catalog in SQLite.
//
// The catalog is the durable record of every tracked file: its identity
// (path, size, mtime), signatures, junk verdict, and duplicate-group
// membership. All pipeline components write through this package; none of
// them hold in-process shared state.
package catalog
