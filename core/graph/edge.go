package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Relation Types
// =============================================================================

// RelationType classifies the relationship an edge represents. Clinical
// builders emit the prescribed/diagnosed/measured/interacts_with/treats/
// affects relations; the audit builder emits generic relations only.
type RelationType int

const (
	// RelationPrescribed links a patient to a prescribed medication.
	RelationPrescribed RelationType = 0

	// RelationDiagnosed links a patient to a diagnosed condition.
	RelationDiagnosed RelationType = 1

	// RelationMeasured links a patient to a lab observation.
	RelationMeasured RelationType = 2

	// RelationInteractsWith links two medications with a known interaction.
	RelationInteractsWith RelationType = 3

	// RelationTreats links a medication to a condition it treats.
	RelationTreats RelationType = 4

	// RelationAffects links a medication to a lab value it influences.
	RelationAffects RelationType = 5

	// RelationGeneric is the untyped relation used by the audit path.
	RelationGeneric RelationType = 6
)

// String returns the string representation of the RelationType.
func (rt RelationType) String() string {
	switch rt {
	case RelationPrescribed:
		return "prescribed"
	case RelationDiagnosed:
		return "diagnosed"
	case RelationMeasured:
		return "measured"
	case RelationInteractsWith:
		return "interacts_with"
	case RelationTreats:
		return "treats"
	case RelationAffects:
		return "affects"
	case RelationGeneric:
		return "generic"
	default:
		return fmt.Sprintf("relation_type(%d)", rt)
	}
}

// ParseRelationType parses a string into a RelationType.
func ParseRelationType(s string) (RelationType, error) {
	switch s {
	case "prescribed":
		return RelationPrescribed, nil
	case "diagnosed":
		return RelationDiagnosed, nil
	case "measured":
		return RelationMeasured, nil
	case "interacts_with":
		return RelationInteractsWith, nil
	case "treats":
		return RelationTreats, nil
	case "affects":
		return RelationAffects, nil
	case "generic":
		return RelationGeneric, nil
	default:
		return RelationGeneric, fmt.Errorf("unknown relation type: %s", s)
	}
}

// IsValid returns true if the relation type is a recognized value.
func (rt RelationType) IsValid() bool {
	return rt >= RelationPrescribed && rt <= RelationGeneric
}

// ValidRelationTypes returns all valid RelationType values.
func ValidRelationTypes() []RelationType {
	return []RelationType{
		RelationPrescribed,
		RelationDiagnosed,
		RelationMeasured,
		RelationInteractsWith,
		RelationTreats,
		RelationAffects,
		RelationGeneric,
	}
}

// MarshalJSON implements json.Marshaler for RelationType.
func (rt RelationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(rt.String())
}

// UnmarshalJSON implements json.Unmarshaler for RelationType.
func (rt *RelationType) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := ParseRelationType(asString)
		if err != nil {
			return err
		}
		*rt = parsed
		return nil
	}

	var asInt int
	if err := json.Unmarshal(data, &asInt); err == nil {
		*rt = RelationType(asInt)
		return nil
	}

	return fmt.Errorf("invalid relation type")
}

// =============================================================================
// Edge
// =============================================================================

// Edge is one scored relationship between two nodes of a graph. Source and
// Target are node indices local to the owning graph. OriginID links the edge
// back to the source record (event id, medication name pair, and so on) so
// callers can map scores onto their inputs.
type Edge struct {
	// Source is the source node index.
	Source int `json:"source"`

	// Target is the target node index.
	Target int `json:"target"`

	// Relation is the relationship category.
	Relation RelationType `json:"relation"`

	// Weight is the edge strength in [0, 1]. Recency-decayed for clinical
	// record edges, interaction severity for drug-interaction edges.
	Weight float64 `json:"weight"`

	// OriginID identifies the source record this edge was built from.
	OriginID string `json:"origin_id"`

	// Metadata carries edge attributes echoed into graph metadata.
	Metadata map[string]string `json:"metadata,omitempty"`
}
