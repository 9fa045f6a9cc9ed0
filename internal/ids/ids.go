// Package ids wires the snowflake ID generator, grounded on
// cmd/valora/main.go's fx.Provide(func() *snowflake.Node { ... }).
package ids

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// Config selects the snowflake node ID. A fixed node ID (default 1) keeps
// a single-process batch run's generated IDs reproducible across runs of
// the same input, which the teacher's multi-replica server does not need
// but a deterministic batch CLI does.
type Config struct {
	NodeID int64
}

func DefaultConfig() Config { return Config{NodeID: 1} }

// NewNode builds the snowflake node audit-record IDs are generated from.
func NewNode(cfg Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

// Module wires the snowflake node for fx.
var Module = fx.Module("ids",
	fx.Provide(DefaultConfig),
	fx.Provide(NewNode),
)
