// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/sift/internal/adapters/fs"
	_ "go.trai.ch/sift/internal/adapters/logger"
	_ "go.trai.ch/sift/internal/adapters/parser"
	_ "go.trai.ch/sift/internal/adapters/remote"
	_ "go.trai.ch/sift/internal/adapters/telemetry"
	_ "go.trai.ch/sift/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/sift/internal/app"
	_ "go.trai.ch/sift/internal/engine/graph"
	_ "go.trai.ch/sift/internal/engine/resolver"
)
