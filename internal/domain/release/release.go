package release

import (
	"fmt"
	"path"
	"runtime"
	"sort"
	"strings"
)

// Release describes a single catalog entry using the vendor's JSON field names.
type Release struct {
	// Version is the full version string, e.g. "25.0.1+13".
	Version string `json:"version"`
	// FeatureVersion is the Java feature release number, e.g. 25.
	FeatureVersion int `json:"featureVersion"`
	// OS is the vendor operating system token (linux, macos, windows, ...).
	OS string `json:"os"`
	// Architecture is the vendor CPU family token (x86, arm, ppc, ...).
	Architecture string `json:"architecture"`
	// Bitness is 32 or 64.
	Bitness int `json:"bitness"`
	// PackageType is the archive format (tar.gz, zip, deb, ...).
	PackageType string `json:"packageType"`
	// BundleType distinguishes jdk and jre bundles.
	BundleType string `json:"bundleType"`
	// Filename is the published archive file name.
	Filename string `json:"filename"`
	// DownloadURL is the direct download location.
	DownloadURL string `json:"downloadUrl"`
	// Size is the archive size in bytes.
	Size int64 `json:"size"`
	// SHA1 is the hex-encoded digest of the archive.
	SHA1 string `json:"sha1"`
	// LTS marks long-term support releases.
	LTS bool `json:"LTS"`
}

// Query narrows a release list. Zero-valued fields match everything.
type Query struct {
	Version        string
	FeatureVersion int
	OS             string
	Architecture   string
	PackageType    string
	BundleType     string
}

// Matches reports whether the release satisfies every set field of the query.
func (q Query) Matches(r Release) bool {
	if q.Version != "" && !strings.EqualFold(q.Version, r.Version) {
		return false
	}

	if q.FeatureVersion > 0 && q.FeatureVersion != r.FeatureVersion {
		return false
	}

	if q.OS != "" && !strings.EqualFold(q.OS, r.OS) {
		return false
	}

	if q.Architecture != "" && !strings.EqualFold(q.Architecture, r.Architecture) {
		return false
	}

	if q.PackageType != "" && !strings.EqualFold(q.PackageType, r.PackageType) {
		return false
	}

	if q.BundleType != "" && !strings.EqualFold(q.BundleType, r.BundleType) {
		return false
	}

	return true
}

// Filter returns the releases matching the query, newest first.
func Filter(releases []Release, q Query) []Release {
	result := make([]Release, 0, len(releases))

	for _, r := range releases {
		if q.Matches(r) {
			result = append(result, r)
		}
	}

	Sort(result)

	return result
}

// Sort orders releases newest first: by feature version, then version string.
func Sort(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		if releases[i].FeatureVersion != releases[j].FeatureVersion {
			return releases[i].FeatureVersion > releases[j].FeatureVersion
		}

		return releases[i].Version > releases[j].Version
	})
}

// Platform identifies the running machine in vendor terms.
type Platform struct {
	// OS is the vendor operating system token used in catalog entries.
	OS string
	// Architecture is the vendor CPU family token used in catalog entries.
	Architecture string
	// Bitness is 32 or 64.
	Bitness int
	// Slug is the os-arch token used in published file names, e.g. "linux-amd64".
	Slug string
	// Extension is the archive format for this platform.
	Extension string
}

// CurrentPlatform maps GOOS/GOARCH to the vendor's platform tokens.
func CurrentPlatform() Platform {
	p := Platform{
		OS:        runtime.GOOS,
		Bitness:   64,
		Extension: "tar.gz",
	}

	switch runtime.GOOS {
	case "darwin":
		p.OS = "macos"
	case "windows":
		p.Extension = "zip"
	}

	archToken := runtime.GOARCH

	switch runtime.GOARCH {
	case "amd64":
		p.Architecture = "x86"
	case "386":
		p.Architecture = "x86"
		p.Bitness = 32
		archToken = "i586"
	case "arm64":
		p.Architecture = "arm"
		archToken = "aarch64"
	case "arm":
		p.Architecture = "arm"
		p.Bitness = 32
	case "ppc64le":
		p.Architecture = "ppc"
		archToken = "ppc64le"
	case "riscv64":
		p.Architecture = "riscv"
	}

	p.Slug = p.OS + "-" + archToken

	return p
}

// DefaultMirror hosts the vendor's published archives.
const DefaultMirror = "https://download.bell-sw.com"

// DirectURL builds the deterministic archive URL for a version on a platform.
// It is the fallback when the catalog has no matching entry.
func DirectURL(mirror, version string, p Platform) string {
	if mirror == "" {
		mirror = DefaultMirror
	}

	return fmt.Sprintf("%s/java/%s/bellsoft-jdk%s-%s.%s",
		strings.TrimRight(mirror, "/"), version, version, p.Slug, p.Extension)
}

// FolderName derives the default install folder for a version:
// "25.0.1+13" becomes "jdk-25.0.1".
func FolderName(version string) string {
	base, _, _ := strings.Cut(version, "+")
	return "jdk-" + base
}

// FilenameFromURL extracts the archive file name from a download URL.
func FilenameFromURL(rawURL string) string {
	trimmed := strings.SplitN(rawURL, "?", 2)[0]
	return path.Base(trimmed)
}
