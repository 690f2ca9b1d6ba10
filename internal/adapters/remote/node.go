package remote

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/logger"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/core/ports"
)

// NodeID is the unique identifier for the remote cache Graft node.
const NodeID graft.ID = "adapter.remote"

func init() {
	graft.Register(graft.Node[ports.RemoteCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.NodeID, logger.NodeID, telemetry.NodeID},
		Run: func(ctx context.Context) (ports.RemoteCache, error) {
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
			// Remote documents are always cached below the working directory.
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			return NewCache(fsys, log, tracer, cwd), nil
		},
	})
}
