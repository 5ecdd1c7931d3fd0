// Package models defines the core domain models for graph-based marketing automations.
package models

// NodeType represents the kind of a flow node.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "TRIGGER"   // Entry anchor of a flow
	NodeTypeAction    NodeType = "ACTION"    // Side-effecting step (email, invoice, inbox, sms)
	NodeTypeCondition NodeType = "CONDITION" // Binary branch on the enrollment context
	NodeTypeDelay     NodeType = "DELAY"     // Suspends the enrollment until a wake time
)

// IsValid checks if the node type is one of the known types.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeTrigger, NodeTypeAction, NodeTypeCondition, NodeTypeDelay:
		return true
	default:
		return false
	}
}

// Branch labels produced by CONDITION nodes and matched against edge source handles.
const (
	OutcomeTrue  = "true"
	OutcomeFalse = "false"
)

// FlowNode represents a node instance in a flow definition.
// Data is opaque and its shape depends on Type.
type FlowNode struct {
	ID   string         `json:"id"   validate:"required"`
	Type NodeType       `json:"type" validate:"required,oneof=TRIGGER ACTION CONDITION DELAY"`
	Data map[string]any `json:"data,omitempty"`
}

// IsTrigger reports whether the node is the flow entry anchor.
func (n *FlowNode) IsTrigger() bool {
	return n.Type == NodeTypeTrigger
}

// IsDelay reports whether the node suspends the enrollment.
func (n *FlowNode) IsDelay() bool {
	return n.Type == NodeTypeDelay
}

// ActionType returns the action kind of an ACTION node, defaulting to SEND_EMAIL.
func (n *FlowNode) ActionType() ActionType {
	raw, _ := n.Data["actionType"].(string)
	if raw == "" {
		return ActionTypeSendEmail
	}

	return ActionType(raw)
}

// FlowEdge connects two nodes. SourceHandle labels the branch on CONDITION nodes.
type FlowEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// FlowDefinition is the directed graph of an automation.
type FlowDefinition struct {
	Nodes []*FlowNode `json:"nodes" validate:"dive"`
	Edges []*FlowEdge `json:"edges" validate:"dive"`
}

// Node returns the node with the given id.
func (f *FlowDefinition) Node(id string) (*FlowNode, bool) {
	for _, node := range f.Nodes {
		if node != nil && node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// TriggerNode returns the first TRIGGER node of the flow.
func (f *FlowDefinition) TriggerNode() (*FlowNode, bool) {
	for _, node := range f.Nodes {
		if node != nil && node.IsTrigger() {
			return node, true
		}
	}

	return nil, false
}

// OutgoingEdges returns the edges whose source is nodeID, in definition order.
func (f *FlowDefinition) OutgoingEdges(nodeID string) []*FlowEdge {
	var edges []*FlowEdge

	for _, edge := range f.Edges {
		if edge != nil && edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}
