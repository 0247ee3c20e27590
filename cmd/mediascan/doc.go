// Command mediascan ingests a directory tree of photos and videos into a
// SQLite catalog, computes content signatures, groups duplicates, and flags
// junk files.
package main
