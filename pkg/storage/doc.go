// Package storage keeps the images downloaded for detection.
//
// Images live under the media root, one directory per handle:
//
//	<media_dir>/<handle>/<shortcode>.jpg
//
// Writes go through a temporary file in the same directory followed by an
// atomic rename, so a crash never leaves a truncated image behind under the
// final name. Existing images are detected on first use of a handle and
// reused instead of being downloaded again.
package storage
