package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/graph"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			graph.NodeID,
			fs.NodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			builder, err := graft.Dep[*graph.Builder](ctx)
			if err != nil {
				return nil, err
			}

			fsys, err := graft.Dep[ports.FileSystem](ctx)
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

			return New(builder, fsys, log, tracer), nil
		},
	})
}
