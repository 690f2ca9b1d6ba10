package ports

// FileSystem abstracts the file operations needed to load configuration documents
// and maintain the remote configuration cache.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
	// IsDir reports whether path is an existing directory.
	IsDir(path string) bool
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the file at path with data atomically.
	WriteFile(path string, data []byte) error
	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
	// ReadDir lists the paths of the entries directly below path.
	ReadDir(path string) ([]string, error)
	// RemoveAll removes path and everything below it.
	RemoveAll(path string) error
}
