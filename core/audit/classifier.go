package audit

import (
	"github.com/gobwas/glob"

	"github.com/anomalab/edgegraph/core/engineerr"
	"github.com/anomalab/edgegraph/core/graph"
)

// TypeRule maps a glob pattern over entity identifiers to a node type.
type TypeRule struct {
	Pattern string
	Type    graph.NodeType
}

// DefaultTypeRules returns the built-in entity typing rules. Rules are
// evaluated in order; the first match wins.
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{Pattern: "user_*", Type: graph.NodeTypeUser},
		{Pattern: "patient_*", Type: graph.NodeTypePatient},
		{Pattern: "ip_*", Type: graph.NodeTypeIP},
		{Pattern: "system_*", Type: graph.NodeTypeSystem},
	}
}

type compiledRule struct {
	matcher glob.Glob
	typ     graph.NodeType
}

// EntityClassifier assigns node types to entity identifiers. Patterns are
// compiled once at construction; classification itself never fails, entities
// matching no rule are typed unknown.
type EntityClassifier struct {
	rules []compiledRule
}

// NewEntityClassifier compiles the given rules. A nil rule slice selects
// the defaults.
func NewEntityClassifier(rules []TypeRule) (*EntityClassifier, error) {
	if rules == nil {
		rules = DefaultTypeRules()
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		matcher, err := glob.Compile(r.Pattern)
		if err != nil {
			return nil, engineerr.NewConfigurationError(
				"entity_rules", "invalid glob pattern", err,
			).WithOffendingID(r.Pattern)
		}
		compiled = append(compiled, compiledRule{matcher: matcher, typ: r.Type})
	}

	return &EntityClassifier{rules: compiled}, nil
}

// Classify returns the node type for an entity identifier.
func (c *EntityClassifier) Classify(entityID string) graph.NodeType {
	for _, r := range c.rules {
		if r.matcher.Match(entityID) {
			return r.typ
		}
	}
	return graph.NodeTypeUnknown
}
