package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"factloop/internal/model"
)

// stubCompleter returns canned responses
type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) IsAvailable(ctx context.Context) bool { return true }

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestClient_ExtractFacts(t *testing.T) {
	stub := &stubCompleter{response: `{
		"extracted_facts": [
			{"id": "f1", "text": "A", "source": "doc1", "confidence": 0.9, "category": "x"},
			{"text": "no id assigned", "source": "doc1", "confidence": 0.5, "category": "x"}
		],
		"extraction_metadata": {"note": "ok"}
	}`}

	client := NewClient(stub)
	set, err := client.ExtractFacts(context.Background(), model.Corpus{})
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("expected 2 facts, got %d", set.Len())
	}
	if set.ExtractedFacts[0].ID != "f1" {
		t.Errorf("existing id must be preserved: %+v", set.ExtractedFacts[0])
	}
	if set.ExtractedFacts[1].ID == "" {
		t.Error("missing id must be assigned")
	}
}

func TestClient_ExtractFacts_DuplicateIDsReassigned(t *testing.T) {
	stub := &stubCompleter{response: `{"extracted_facts": [
		{"id": "f1", "text": "A", "source": "doc1", "confidence": 0.9, "category": "x"},
		{"id": "f1", "text": "B", "source": "doc1", "confidence": 0.8, "category": "x"}
	]}`}

	set, err := NewClient(stub).ExtractFacts(context.Background(), model.Corpus{})
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if set.ExtractedFacts[0].ID == set.ExtractedFacts[1].ID {
		t.Errorf("duplicate ids not reassigned: %+v", set.ExtractedFacts)
	}
}

func TestClient_ExtractFacts_MalformedFatal(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "here are your facts!"},
		{"missing array", `{"extraction_metadata": {}}`},
		{"invalid record", `{"extracted_facts": [{"id": "f1", "text": "", "source": "doc1"}]}`},
		{"confidence range", `{"extracted_facts": [{"id": "f1", "text": "A", "source": "doc1", "confidence": 2.0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{response: tt.response}
			_, err := NewClient(stub).ExtractFacts(context.Background(), model.Corpus{})

			var gwErr *Error
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if gwErr.Operation != "extract_facts" {
				t.Errorf("wrong operation: %s", gwErr.Operation)
			}
		})
	}
}

func TestClient_Assess(t *testing.T) {
	stub := &stubCompleter{response: `{"coverage_analysis": {
		"missing_facts": ["B missing"],
		"incorrect_facts": [],
		"recommendations": ["check doc2"]
	}}`}

	a, err := NewClient(stub).Assess(context.Background(), model.Corpus{}, model.FactSet{})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if len(a.MissingFacts) != 1 || a.MissingFacts[0] != "B missing" {
		t.Errorf("unexpected assessment: %+v", a)
	}
	if a.Clean() {
		t.Error("assessment with gaps must not be clean")
	}
}

func TestClient_Assess_MissingEnvelopeFatal(t *testing.T) {
	// Without coverage_analysis the zero value would read as a clean
	// assessment and silently converge the run
	tests := []struct {
		name     string
		response string
	}{
		{"unrelated object", `{"totally_unrelated": 1}`},
		{"empty object", `{}`},
		{"null envelope", `{"coverage_analysis": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{response: tt.response}
			_, err := NewClient(stub).Assess(context.Background(), model.Corpus{}, model.FactSet{})

			var gwErr *Error
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if gwErr.Operation != "assess" {
				t.Errorf("wrong operation: %s", gwErr.Operation)
			}
		})
	}
}

func TestClient_Assess_EmptyEnvelopeIsClean(t *testing.T) {
	// An empty coverage_analysis object is a legitimate clean verdict, as
	// opposed to the key being absent
	stub := &stubCompleter{response: `{"coverage_analysis": {}}`}

	a, err := NewClient(stub).Assess(context.Background(), model.Corpus{}, model.FactSet{})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !a.Clean() {
		t.Errorf("expected clean assessment, got %+v", a)
	}
}

func TestClient_Assess_FencedResponse(t *testing.T) {
	stub := &stubCompleter{response: "```json\n" + `{"coverage_analysis": {"missing_facts": [], "incorrect_facts": []}}` + "\n```"}

	a, err := NewClient(stub).Assess(context.Background(), model.Corpus{}, model.FactSet{})
	if err != nil {
		t.Fatalf("Assess with fenced response: %v", err)
	}
	if !a.Clean() {
		t.Errorf("unexpected assessment: %+v", a)
	}
}

func TestClient_GeneratePatch(t *testing.T) {
	stub := &stubCompleter{response: `{"patch": [
		{"op": "add", "path": "/extracted_facts", "value": {"id": "f2", "text": "B", "source": "doc1", "confidence": 0.8, "category": "x"}},
		{"op": "remove", "path": "/extracted_facts/0"}
	]}`}

	ops, err := NewClient(stub).GeneratePatch(context.Background(), model.Corpus{}, model.AssessmentResult{}, model.FactSet{})
	if err != nil {
		t.Fatalf("GeneratePatch: %v", err)
	}
	if len(ops) != 2 || ops[0].Op != model.PatchOpAdd || ops[1].Op != model.PatchOpRemove {
		t.Errorf("unexpected ops: %+v", ops)
	}
}

func TestClient_GeneratePatch_EmptyIsNotAnError(t *testing.T) {
	stub := &stubCompleter{response: `{"patch": []}`}

	ops, err := NewClient(stub).GeneratePatch(context.Background(), model.Corpus{}, model.AssessmentResult{}, model.FactSet{})
	if err != nil {
		t.Fatalf("empty patch must not be an error: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected no ops, got %+v", ops)
	}
}

func TestClient_GeneratePatch_MissingEnvelopeFatal(t *testing.T) {
	// A nil patch array would read as "no corrections" and end the run as a
	// successful convergence; only an explicit empty array means that
	tests := []struct {
		name     string
		response string
	}{
		{"wrong key", `{"operations": [{"op": "add"}]}`},
		{"empty object", `{}`},
		{"null patch", `{"patch": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{response: tt.response}
			_, err := NewClient(stub).GeneratePatch(context.Background(), model.Corpus{}, model.AssessmentResult{}, model.FactSet{})

			var gwErr *Error
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if gwErr.Operation != "generate_patch" {
				t.Errorf("wrong operation: %s", gwErr.Operation)
			}
		})
	}
}

func TestClient_TransportErrorWrapped(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	stub := &stubCompleter{err: cause}

	_, err := NewClient(stub).Assess(context.Background(), model.Corpus{}, model.FactSet{})

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved through Unwrap")
	}
	if gwErr.Provider != "stub" || gwErr.Operation != "assess" {
		t.Errorf("error missing context: %+v", gwErr)
	}
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	if _, err := NewCompleter(Config{Provider: "mystery"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewCompleter_KnownProviders(t *testing.T) {
	if _, err := NewCompleter(Config{Provider: "openai", APIKey: "k"}); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := NewCompleter(Config{Provider: "anthropic", APIKey: "k"}); err != nil {
		t.Errorf("anthropic: %v", err)
	}
	if _, err := NewCompleter(Config{Provider: "ollama"}); err != nil {
		t.Errorf("ollama: %v", err)
	}
	// Missing keys are precondition failures at construction
	if _, err := NewCompleter(Config{Provider: "openai"}); err == nil {
		t.Error("openai without key should fail")
	}
}
