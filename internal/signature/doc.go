// Package signature computes content signatures for media files: an exact
// SHA-256 over the raw bytes and a 64-bit perceptual difference hash that
// survives resizing and recompression.
package signature
