package graph

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/parser"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/remote"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/core/ports"
)

// NodeID is the unique identifier for the graph builder Graft node.
const NodeID graft.ID = "engine.graph_builder"

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.NodeID,
			parser.NodeID,
			remote.NodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*Builder, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}

			docParser, err := graft.Dep[ports.DocumentParser](ctx)
			if err != nil {
				return nil, err
			}

			cache, err := graft.Dep[ports.RemoteCache](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return NewBuilder(fsys, docParser, cache, log, tracer), nil
		},
	})
}
