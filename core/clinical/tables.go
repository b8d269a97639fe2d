package clinical

import (
	"fmt"
	"strings"
)

// Severity grades a drug-drug interaction.
type Severity int

const (
	SeverityMinor Severity = iota
	SeverityModerate
	SeverityMajor
)

var severityNames = map[Severity]string{
	SeverityMinor:    "minor",
	SeverityModerate: "moderate",
	SeverityMajor:    "major",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// Weight maps an interaction severity onto an edge weight in [0,1].
func (s Severity) Weight() float64 {
	switch s {
	case SeverityMajor:
		return 1.0
	case SeverityModerate:
		return 0.6
	default:
		return 0.3
	}
}

// ParseSeverity converts a string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch canonical(s) {
	case "minor":
		return SeverityMinor, nil
	case "moderate":
		return SeverityModerate, nil
	case "major":
		return SeverityMajor, nil
	default:
		return SeverityMinor, fmt.Errorf("invalid severity: %s", s)
	}
}

// canonical normalizes a clinical term for table lookups. Matching is
// case-insensitive and ignores surrounding whitespace.
func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type drugPair [2]string

// orderedPair canonicalizes and orders two drug names so lookup is
// symmetric: Interacts(a,b) == Interacts(b,a).
func orderedPair(a, b string) drugPair {
	ca, cb := canonical(a), canonical(b)
	if ca > cb {
		ca, cb = cb, ca
	}
	return drugPair{ca, cb}
}

type stringSet map[string]struct{}

func (s stringSet) add(v string)      { s[canonical(v)] = struct{}{} }
func (s stringSet) has(v string) bool { _, ok := s[canonical(v)]; return ok }

// Tables holds the clinical relationship knowledge the graph builder
// consults: drug-drug interactions, treatment matches, medication/lab
// effects, and the high-risk and chronic term sets. Not safe for
// concurrent mutation; build the table set once, then share it read-only.
type Tables struct {
	interactions map[drugPair]Severity
	treatments   map[string]stringSet // condition -> medications
	medLabs      map[string]stringSet // medication -> lab names
	highRisk     stringSet
	chronic      stringSet
}

// NewTables returns an empty table set.
func NewTables() *Tables {
	return &Tables{
		interactions: make(map[drugPair]Severity),
		treatments:   make(map[string]stringSet),
		medLabs:      make(map[string]stringSet),
		highRisk:     make(stringSet),
		chronic:      make(stringSet),
	}
}

// DefaultTables returns the built-in clinical knowledge. The entries are a
// small, well-known core (anticoagulant and NSAID interactions, common
// chronic-disease treatments, standard monitoring labs), intended to be
// extended from configuration for real deployments.
func DefaultTables() *Tables {
	t := NewTables()

	t.AddInteraction("warfarin", "aspirin", SeverityMajor)
	t.AddInteraction("warfarin", "ibuprofen", SeverityMajor)
	t.AddInteraction("simvastatin", "amiodarone", SeverityMajor)
	t.AddInteraction("sertraline", "tramadol", SeverityMajor)
	t.AddInteraction("aspirin", "ibuprofen", SeverityModerate)
	t.AddInteraction("lisinopril", "spironolactone", SeverityModerate)
	t.AddInteraction("digoxin", "furosemide", SeverityModerate)
	t.AddInteraction("metformin", "furosemide", SeverityMinor)

	t.AddTreatment("hypertension", "lisinopril")
	t.AddTreatment("hypertension", "amlodipine")
	t.AddTreatment("hypertension", "furosemide")
	t.AddTreatment("diabetes", "metformin")
	t.AddTreatment("diabetes", "insulin")
	t.AddTreatment("atrial fibrillation", "warfarin")
	t.AddTreatment("atrial fibrillation", "digoxin")
	t.AddTreatment("atrial fibrillation", "amiodarone")
	t.AddTreatment("hyperlipidemia", "simvastatin")
	t.AddTreatment("hyperlipidemia", "atorvastatin")
	t.AddTreatment("depression", "sertraline")
	t.AddTreatment("chronic pain", "ibuprofen")
	t.AddTreatment("chronic pain", "tramadol")
	t.AddTreatment("heart failure", "furosemide")
	t.AddTreatment("heart failure", "digoxin")
	t.AddTreatment("heart failure", "spironolactone")
	t.AddTreatment("heart failure", "lisinopril")

	t.AddMedLab("warfarin", "inr")
	t.AddMedLab("metformin", "glucose")
	t.AddMedLab("metformin", "hba1c")
	t.AddMedLab("metformin", "creatinine")
	t.AddMedLab("insulin", "glucose")
	t.AddMedLab("insulin", "hba1c")
	t.AddMedLab("lisinopril", "potassium")
	t.AddMedLab("lisinopril", "creatinine")
	t.AddMedLab("spironolactone", "potassium")
	t.AddMedLab("furosemide", "potassium")
	t.AddMedLab("furosemide", "sodium")
	t.AddMedLab("simvastatin", "alt")
	t.AddMedLab("simvastatin", "ast")
	t.AddMedLab("atorvastatin", "alt")
	t.AddMedLab("atorvastatin", "ast")
	t.AddMedLab("amiodarone", "tsh")
	t.AddMedLab("amiodarone", "alt")
	t.AddMedLab("digoxin", "potassium")

	t.AddHighRisk("warfarin")
	t.AddHighRisk("insulin")
	t.AddHighRisk("digoxin")
	t.AddHighRisk("amiodarone")
	t.AddHighRisk("methotrexate")
	t.AddHighRisk("heparin")

	t.AddChronic("diabetes")
	t.AddChronic("hypertension")
	t.AddChronic("heart failure")
	t.AddChronic("copd")
	t.AddChronic("asthma")
	t.AddChronic("chronic kidney disease")
	t.AddChronic("atrial fibrillation")
	t.AddChronic("hyperlipidemia")
	t.AddChronic("depression")
	t.AddChronic("chronic pain")

	return t
}

// AddInteraction records a symmetric drug-drug interaction.
func (t *Tables) AddInteraction(a, b string, sev Severity) {
	t.interactions[orderedPair(a, b)] = sev
}

// Interacts reports whether two drugs interact and at what severity.
// The lookup is symmetric in its arguments.
func (t *Tables) Interacts(a, b string) (Severity, bool) {
	sev, ok := t.interactions[orderedPair(a, b)]
	return sev, ok
}

// AddTreatment records that a medication treats a condition.
func (t *Tables) AddTreatment(condition, medication string) {
	key := canonical(condition)
	if t.treatments[key] == nil {
		t.treatments[key] = make(stringSet)
	}
	t.treatments[key].add(medication)
}

// Treats reports whether a medication is a recognized treatment for a
// condition.
func (t *Tables) Treats(medication, condition string) bool {
	meds, ok := t.treatments[canonical(condition)]
	return ok && meds.has(medication)
}

// AddMedLab records that a medication affects a lab result.
func (t *Tables) AddMedLab(medication, lab string) {
	key := canonical(medication)
	if t.medLabs[key] == nil {
		t.medLabs[key] = make(stringSet)
	}
	t.medLabs[key].add(lab)
}

// Affects reports whether a medication is known to affect a lab result.
func (t *Tables) Affects(medication, lab string) bool {
	labs, ok := t.medLabs[canonical(medication)]
	return ok && labs.has(lab)
}

// AddHighRisk marks a medication as high-risk.
func (t *Tables) AddHighRisk(medication string) {
	t.highRisk.add(medication)
}

// IsHighRisk reports whether a medication is in the high-risk set.
func (t *Tables) IsHighRisk(medication string) bool {
	return t.highRisk.has(medication)
}

// AddChronic marks a condition as chronic.
func (t *Tables) AddChronic(condition string) {
	t.chronic.add(condition)
}

// IsChronic reports whether a condition is in the chronic set.
func (t *Tables) IsChronic(condition string) bool {
	return t.chronic.has(condition)
}
