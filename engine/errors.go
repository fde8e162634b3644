package engine

import (
	"fmt"

	"github.com/coreflow/coreflow/graph"
)

func errNodeNotAvailable(id graph.NodeID) error {
	return fmt.Errorf("engine: node %s has no result yet", id)
}
