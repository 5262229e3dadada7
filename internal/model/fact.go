package model

import "fmt"

// FactRecord represents one factual statement extracted from the source corpus
type FactRecord struct {
	ID               string  `json:"id"`                          // Unique within a FactSet
	Text             string  `json:"text"`                        // The factual claim itself
	Source           string  `json:"source"`                      // Originating document identifier
	Confidence       float64 `json:"confidence"`                  // Extraction confidence in [0,1]
	Category         string  `json:"category"`                    // Domain-specific classification
	Context          string  `json:"context,omitempty"`           // Surrounding context, if captured
	ExtractionMethod string  `json:"extraction_method,omitempty"` // How the fact was obtained
}

// Validate checks the required-field contract for a FactRecord
func (r FactRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("fact record: id is required")
	}
	if r.Text == "" {
		return fmt.Errorf("fact record %s: text is required", r.ID)
	}
	if r.Source == "" {
		return fmt.Errorf("fact record %s: source is required", r.ID)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("fact record %s: confidence must be in [0,1], got %g", r.ID, r.Confidence)
	}
	return nil
}

// FactSet is the aggregate fact document under iterative refinement
type FactSet struct {
	ExtractedFacts     []FactRecord           `json:"extracted_facts"`
	ExtractionMetadata map[string]interface{} `json:"extraction_metadata,omitempty"`
}

// Clone returns a deep copy of the FactSet. The patch applicator operates on
// copies so a failed batch never leaves the caller's document half-mutated.
func (s FactSet) Clone() FactSet {
	out := FactSet{
		ExtractedFacts: make([]FactRecord, len(s.ExtractedFacts)),
	}
	copy(out.ExtractedFacts, s.ExtractedFacts)
	if s.ExtractionMetadata != nil {
		out.ExtractionMetadata = make(map[string]interface{}, len(s.ExtractionMetadata))
		for k, v := range s.ExtractionMetadata {
			out.ExtractionMetadata[k] = v
		}
	}
	return out
}

// HasID reports whether the set already contains a record with the given id
func (s FactSet) HasID(id string) bool {
	for _, r := range s.ExtractedFacts {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of extracted facts
func (s FactSet) Len() int {
	return len(s.ExtractedFacts)
}
