// Package release models vendor catalog entries and the platform mapping
// used to pick and address them: filtering, GOOS/GOARCH translation,
// deterministic download URLs and install folder derivation.
package release
