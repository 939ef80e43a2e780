// Package installer implements the install pipeline: resolve a release
// against the vendor catalog (or an explicit URL), download the archive
// into the cache with checksum verification, extract it into a scratch
// directory and move the tree into the destination folder. A marker file
// guards against parallel runs and temporary artifacts are always removed.
package installer
