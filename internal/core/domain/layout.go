package domain

import (
	"path/filepath"
	"time"
)

const (
	// ToolDirName is the name of the tool's private directory at the project root.
	ToolDirName = ".sift"

	// RemoteCacheDirName is the name of the remote configuration cache directory.
	RemoteCacheDirName = "RemoteConfigCache"

	// RemoteCacheVersion is the schema version of the remote configuration cache.
	// Bumping it makes every older cache directory eligible for pruning.
	RemoteCacheVersion = "v1"

	// ConfigFileName is the name of the default and nested configuration documents.
	ConfigFileName = ".sift.yml"

	// IgnoreMarkerFileName is the name of the VCS ignore file maintained at the project root.
	IgnoreMarkerFileName = ".gitignore"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

const (
	// DefaultRemoteTimeout bounds a remote fetch when no cached copy exists.
	DefaultRemoteTimeout = 2 * time.Second

	// DefaultRemoteTimeoutIfCached bounds a remote fetch when a cached copy can serve as fallback.
	DefaultRemoteTimeoutIfCached = 1 * time.Second
)

// RemoteCacheRoot returns the directory holding every schema version of the remote cache.
// It joins .sift and RemoteConfigCache.
func RemoteCacheRoot() string {
	return filepath.Join(ToolDirName, RemoteCacheDirName)
}

// RemoteCachePath returns the directory of the current remote cache schema version.
// It joins .sift, RemoteConfigCache and the schema version.
func RemoteCachePath() string {
	return filepath.Join(RemoteCacheRoot(), RemoteCacheVersion)
}

// IgnoreMarkerEntry returns the line the ignore marker must contain.
func IgnoreMarkerEntry() string {
	return filepath.ToSlash(RemoteCacheRoot())
}
