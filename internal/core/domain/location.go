package domain

import (
	"net/url"
	"path/filepath"
	"strings"
)

// LocationKind distinguishes local documents from remote ones.
type LocationKind uint8

const (
	// LocationLocal is a document on the local file system.
	LocationLocal LocationKind = iota
	// LocationRemote is a document behind an http(s) URL that has not been fetched yet.
	LocationRemote
)

// Location points at a configuration document.
type Location struct {
	Kind LocationKind
	// Path is the resolved file path of a local document.
	Path string
	// URL is the source of a remote document.
	URL string
}

// LocalLocation returns a Location for a file on disk.
func LocalLocation(path string) Location {
	return Location{Kind: LocationLocal, Path: filepath.Clean(path)}
}

// RemoteLocation returns a Location for a document served over http(s).
func RemoteLocation(rawURL string) Location {
	return Location{Kind: LocationRemote, URL: rawURL}
}

// ParseReference turns a reference string found in a configuration document (or passed
// on the command line) into a Location. Relative local paths are resolved against
// rootDirectory.
func ParseReference(ref, rootDirectory string) Location {
	if IsRemoteReference(ref) {
		return RemoteLocation(ref)
	}
	if filepath.IsAbs(ref) || rootDirectory == "" {
		return LocalLocation(ref)
	}
	return LocalLocation(filepath.Join(rootDirectory, ref))
}

// IsRemoteReference reports whether ref names an http(s) document.
func IsRemoteReference(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsRemote reports whether the location still has to be fetched.
func (l Location) IsRemote() bool {
	return l.Kind == LocationRemote
}

func (l Location) String() string {
	if l.IsRemote() {
		return l.URL
	}
	return l.Path
}

// CanonicalURL normalizes a URL for identity comparison: scheme and host are
// lower-cased and the fragment is dropped. Unparseable input is returned unchanged.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
