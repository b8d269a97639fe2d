package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Node Types
// =============================================================================

// NodeType classifies an entity node in a relation graph. The clinical path
// uses the patient/medication/condition/lab types; the audit path uses the
// user/ip/system types. Entities that match no known category are tagged
// NodeTypeUnknown rather than rejected.
type NodeType int

const (
	// NodeTypePatient represents the patient at the center of a clinical graph.
	NodeTypePatient NodeType = 0

	// NodeTypeMedication represents a prescribed medication.
	NodeTypeMedication NodeType = 1

	// NodeTypeCondition represents a diagnosed condition.
	NodeTypeCondition NodeType = 2

	// NodeTypeLabValue represents a laboratory observation.
	NodeTypeLabValue NodeType = 3

	// NodeTypeUser represents a user principal in an audit graph.
	NodeTypeUser NodeType = 4

	// NodeTypeIP represents a network address in an audit graph.
	NodeTypeIP NodeType = 5

	// NodeTypeSystem represents a host or service in an audit graph.
	NodeTypeSystem NodeType = 6

	// NodeTypeUnknown is the fallback for entities matching no category.
	NodeTypeUnknown NodeType = 7
)

// String returns the string representation of the NodeType.
func (nt NodeType) String() string {
	switch nt {
	case NodeTypePatient:
		return "patient"
	case NodeTypeMedication:
		return "medication"
	case NodeTypeCondition:
		return "condition"
	case NodeTypeLabValue:
		return "lab_value"
	case NodeTypeUser:
		return "user"
	case NodeTypeIP:
		return "ip"
	case NodeTypeSystem:
		return "system"
	case NodeTypeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("node_type(%d)", nt)
	}
}

// ParseNodeType parses a string into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "patient":
		return NodeTypePatient, nil
	case "medication":
		return NodeTypeMedication, nil
	case "condition":
		return NodeTypeCondition, nil
	case "lab_value":
		return NodeTypeLabValue, nil
	case "user":
		return NodeTypeUser, nil
	case "ip":
		return NodeTypeIP, nil
	case "system":
		return NodeTypeSystem, nil
	case "unknown":
		return NodeTypeUnknown, nil
	default:
		return NodeTypeUnknown, fmt.Errorf("unknown node type: %s", s)
	}
}

// IsValid returns true if the node type is a recognized value.
func (nt NodeType) IsValid() bool {
	return nt >= NodeTypePatient && nt <= NodeTypeUnknown
}

// ValidNodeTypes returns all valid NodeType values.
func ValidNodeTypes() []NodeType {
	return []NodeType{
		NodeTypePatient,
		NodeTypeMedication,
		NodeTypeCondition,
		NodeTypeLabValue,
		NodeTypeUser,
		NodeTypeIP,
		NodeTypeSystem,
		NodeTypeUnknown,
	}
}

// MarshalJSON implements json.Marshaler for NodeType.
func (nt NodeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(nt.String())
}

// UnmarshalJSON implements json.Unmarshaler for NodeType.
func (nt *NodeType) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := ParseNodeType(asString)
		if err != nil {
			return err
		}
		*nt = parsed
		return nil
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*nt = NodeType(asInt)
		return nil
	}

	return fmt.Errorf("invalid node type")
}

// =============================================================================
// Node
// =============================================================================

// Node is one typed entity in a relation graph. Index is a dense zero-based
// identifier local to a single graph; ExternalID is the stable key the node
// was resolved from. Indices are assigned in first-seen order, so identical
// input ordering always reproduces identical indices.
type Node struct {
	// Index is the dense per-graph node identifier.
	Index int `json:"index"`

	// ExternalID is the stable external key (entity id, drug name, test name).
	ExternalID string `json:"external_id"`

	// Type is the node's entity category.
	Type NodeType `json:"type"`

	// Features is the node's encoded feature vector. Populated by the
	// builders once all nodes of the graph are known.
	Features []float64 `json:"-"`

	// Metadata carries entity attributes consumed by the feature encoder
	// and echoed into graph metadata.
	Metadata map[string]string `json:"metadata,omitempty"`
}
