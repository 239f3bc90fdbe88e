// Package imagesource resolves layer source identifiers to images and
// decodes them into RGBA8 pixels.
//
// Three kinds of Source are provided: File reads an image from disk,
// Remote fetches one over HTTP, and Decoded wraps an image.Image that is
// already in memory. A Registry maps identifiers to sources, either
// explicitly or by scheme ("http://", "https://", "file://" or a plain
// path).
//
// Decoders for PNG, JPEG, GIF, BMP, TIFF and WebP are registered on import.
// Files and responses are sniffed before decoding and rejected with
// ErrNotImage when they do not hold an image.
//
// Watcher reports changes to file-backed sources so callers can reload
// them.
package imagesource
