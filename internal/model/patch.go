package model

import "encoding/json"

// PatchOp identifies the RFC 6902 operation type
type PatchOp string

const (
	PatchOpAdd     PatchOp = "add"
	PatchOpReplace PatchOp = "replace"
	PatchOpRemove  PatchOp = "remove"
)

// PatchOperation is one RFC 6902 instruction restricted to the pipeline's
// supported subset: add at /extracted_facts, replace/remove at
// /extracted_facts/<index> and replace at /extracted_facts/<index>/<field>.
type PatchOperation struct {
	Op    PatchOp         `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"` // Absent for remove
}

// PatchResponse is the wire shape returned by the analysis service for a
// patch generation call
type PatchResponse struct {
	Patch []PatchOperation `json:"patch"`
}
