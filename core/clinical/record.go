package clinical

// PatientRecord is the raw clinical input for one patient: active
// medications, diagnosed conditions, and recent lab observations.
type PatientRecord struct {
	PatientID   string           `json:"patient_id"`
	Age         int              `json:"age,omitempty"`
	Medications []Medication     `json:"medications,omitempty"`
	Conditions  []Condition      `json:"conditions,omitempty"`
	Labs        []LabObservation `json:"labs,omitempty"`
}

// Medication is one active prescription.
type Medication struct {
	Name string `json:"name"`

	// Dosage is the prescribed amount in milligrams.
	Dosage float64 `json:"dosage,omitempty"`

	// Frequency is the dosing schedule (e.g. "twice daily").
	Frequency string `json:"frequency,omitempty"`

	// StartDate is when the prescription began. Accepted layouts are
	// RFC3339 and plain dates; unparseable values degrade to the neutral
	// recency weight instead of failing the build.
	StartDate string `json:"start_date,omitempty"`
}

// Condition is one diagnosed condition.
type Condition struct {
	Name string `json:"name"`

	// Severity is one of "mild", "moderate", "severe".
	Severity string `json:"severity,omitempty"`

	OnsetDate string `json:"onset_date,omitempty"`
}

// LabObservation is one lab result with its reference range.
type LabObservation struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`

	// ReferenceLow and ReferenceHigh bound the normal range for the test.
	// When the range is absent or degenerate the value cannot be
	// normalized and is treated as mid-range.
	ReferenceLow  float64 `json:"reference_low,omitempty"`
	ReferenceHigh float64 `json:"reference_high,omitempty"`

	EffectiveDate string `json:"effective_date,omitempty"`
}
