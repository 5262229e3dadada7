package model

import (
	"encoding/json"
	"testing"
)

func TestFactRecord_Validate(t *testing.T) {
	valid := FactRecord{ID: "f1", Text: "A", Source: "doc1", Confidence: 0.9, Category: "x"}

	tests := []struct {
		name    string
		mutate  func(r *FactRecord)
		wantErr bool
	}{
		{"valid", func(r *FactRecord) {}, false},
		{"optional fields empty", func(r *FactRecord) { r.Category = ""; r.Context = "" }, false},
		{"confidence zero", func(r *FactRecord) { r.Confidence = 0 }, false},
		{"confidence one", func(r *FactRecord) { r.Confidence = 1 }, false},
		{"missing id", func(r *FactRecord) { r.ID = "" }, true},
		{"missing text", func(r *FactRecord) { r.Text = "" }, true},
		{"missing source", func(r *FactRecord) { r.Source = "" }, true},
		{"confidence below range", func(r *FactRecord) { r.Confidence = -0.1 }, true},
		{"confidence above range", func(r *FactRecord) { r.Confidence = 1.1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactSet_Clone_Independent(t *testing.T) {
	orig := FactSet{
		ExtractedFacts: []FactRecord{
			{ID: "f1", Text: "A", Source: "doc1", Confidence: 0.9},
		},
		ExtractionMetadata: map[string]interface{}{"run": "r1"},
	}

	clone := orig.Clone()
	clone.ExtractedFacts[0].Text = "changed"
	clone.ExtractedFacts = append(clone.ExtractedFacts, FactRecord{ID: "f2", Text: "B", Source: "doc1"})
	clone.ExtractionMetadata["run"] = "r2"

	if orig.ExtractedFacts[0].Text != "A" {
		t.Error("clone mutation leaked into original record")
	}
	if orig.Len() != 1 {
		t.Errorf("clone append changed original length: %d", orig.Len())
	}
	if orig.ExtractionMetadata["run"] != "r1" {
		t.Error("clone mutation leaked into original metadata")
	}
}

func TestFactSet_Clone_Empty(t *testing.T) {
	clone := FactSet{}.Clone()
	if clone.Len() != 0 {
		t.Errorf("unexpected facts: %+v", clone)
	}
	if clone.ExtractionMetadata != nil {
		t.Error("nil metadata must stay nil")
	}
}

func TestFactSet_HasID(t *testing.T) {
	set := FactSet{ExtractedFacts: []FactRecord{{ID: "f1"}, {ID: "f2"}}}
	if !set.HasID("f1") || !set.HasID("f2") {
		t.Error("known ids not found")
	}
	if set.HasID("f3") {
		t.Error("unknown id reported present")
	}
}

func TestFactSet_JSONShape(t *testing.T) {
	set := FactSet{
		ExtractedFacts: []FactRecord{
			{ID: "f1", Text: "A", Source: "doc1", Confidence: 0.9, Category: "x"},
		},
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := raw["extracted_facts"]; !ok {
		t.Errorf("missing extracted_facts key: %s", data)
	}
	if _, ok := raw["extraction_metadata"]; ok {
		t.Errorf("empty metadata must be omitted: %s", data)
	}
}
