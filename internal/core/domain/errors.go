package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigNotFound is returned when a configuration document does not exist on disk.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrInitialConfigNotFound is returned when a configuration passed explicitly by the caller does not exist.
	ErrInitialConfigNotFound = zerr.New("initial configuration file not found")

	// ErrConfigReadFailed is returned when a configuration document exists but cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read configuration file")

	// ErrConfigParseFailed is returned when a configuration document cannot be parsed into options.
	ErrConfigParseFailed = zerr.New("failed to parse configuration file")

	// ErrUnsupportedFormat is returned when a configuration document has an unknown extension.
	ErrUnsupportedFormat = zerr.New("unsupported configuration format")

	// ErrInvalidOption is returned when an option value has the wrong type.
	ErrInvalidOption = zerr.New("invalid configuration option")

	// ErrInvalidRulesMode is returned when only_rules is combined with disabled_rules or opt_in_rules.
	ErrInvalidRulesMode = zerr.New("only_rules cannot be combined with disabled_rules or opt_in_rules")

	// ErrCycleDetected is returned when the configuration references form a cycle.
	ErrCycleDetected = zerr.New("cycle detected in configuration references")

	// ErrAmbiguousHierarchy is returned when a configuration has more than one parent or child.
	ErrAmbiguousHierarchy = zerr.New("ambiguous configuration hierarchy")

	// ErrInconsistentGraph is returned when a validated graph cannot be linearized.
	ErrInconsistentGraph = zerr.New("configuration graph is inconsistent")

	// ErrRemoteTrustViolation is returned when a remote configuration references a local one.
	ErrRemoteTrustViolation = zerr.New("remote configurations are not allowed to reference local configurations")

	// ErrRemoteFetchFailed is returned when a remote configuration cannot be fetched and no cached copy exists.
	ErrRemoteFetchFailed = zerr.New("unable to load remote configuration")

	// ErrRemoteFetchTimeout is returned when fetching a remote configuration times out and no cached copy exists.
	ErrRemoteFetchTimeout = zerr.New("timed out loading remote configuration")

	// ErrCacheWriteFailed is returned when a fetched remote configuration cannot be cached and no older copy exists.
	ErrCacheWriteFailed = zerr.New("unable to cache remote configuration")

	// ErrInvalidLogFormat is returned when an unknown log format is requested.
	ErrInvalidLogFormat = zerr.New("invalid log format")

	// ErrCacheCleanupFailed is returned when the remote configuration cache cannot be removed.
	ErrCacheCleanupFailed = zerr.New("failed to remove remote configuration cache")
)
