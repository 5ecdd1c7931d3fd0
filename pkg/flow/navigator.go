// Package flow provides the pure graph functions of the automation engine:
// edge resolution, delay computation, condition evaluation and template rendering.
// Nothing in this package performs I/O.
package flow

import "github.com/dukex/automaton/pkg/models"

// FindNextNodeID resolves the node that follows nodeID.
//
// With no outgoing edge the flow is finished and ok is false. When an outcome is
// given, the edge whose SourceHandle (or, for older flows, ID) equals it wins;
// otherwise the first outgoing edge is taken. This single rule covers linear
// chains and binary CONDITION branches.
func FindNextNodeID(definition *models.FlowDefinition, nodeID string, outcome string) (string, bool) {
	if definition == nil {
		return "", false
	}

	edges := definition.OutgoingEdges(nodeID)
	if len(edges) == 0 {
		return "", false
	}

	if outcome != "" {
		for _, edge := range edges {
			if edge.SourceHandle == outcome || edge.ID == outcome {
				return edge.Target, true
			}
		}
	}

	return edges[0].Target, true
}
