package engine

import (
	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/log"
)

// verb gives each node kind a short, human verb for log lines, the same
// way different TRAC node classes get different log phrasing depending on
// whether they set a value, push/pop a context, or run a model.
func verb(k graph.Kind) string {
	switch k {
	case graph.KindStaticValue:
		return "SET"
	case graph.KindContextPush, graph.KindContextPop:
		return "CTX"
	case graph.KindIdentity, graph.KindKeyedItem:
		return "MAP"
	case graph.KindRunModel, graph.KindImportModel:
		return "RUN"
	default:
		return "EVAL"
	}
}

func logNodeStart(logger log.Logger, n *graph.Node) {
	logger.Info("%s [%s] / %s", verb(n.Kind), n.ID.Name, n.ID.Namespace)
}

func logNodeSucceeded(logger log.Logger, n *graph.Node) {
	logger.Info("DONE [%s] / %s", n.ID.Name, n.ID.Namespace)
}

func logNodeFailed(logger log.Logger, n *graph.Node, err error) {
	logger.Error("FAILED [%s] / %s: %v", n.ID.Name, n.ID.Namespace, err)
}
