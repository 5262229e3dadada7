// Package patch applies RFC 6902 patch operations to a FactSet. Only the
// subset the analysis service emits is supported: add at /extracted_facts,
// replace and remove at /extracted_facts/<index>, and replace at
// /extracted_facts/<index>/<field>.
package patch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"factloop/internal/model"
)

const arrayPath = "/extracted_facts"

// Apply applies ops to set strictly in the order given, returning the new
// FactSet and any operations that were skipped. The input set is never
// mutated. Remove indices are resolved against the array as it stands when
// the operation is reached: earlier removes shift later indices, matching
// the sequential RFC 6902 contract. Callers issuing multiple removes in one
// batch must account for the shift or order them back-to-front.
func Apply(set model.FactSet, ops []model.PatchOperation) (model.FactSet, []Skip) {
	out := set.Clone()
	var skips []Skip

	for i, op := range ops {
		if err := applyOne(&out, op); err != nil {
			skips = append(skips, Skip{Index: i, Err: err})
		}
	}

	return out, skips
}

func applyOne(set *model.FactSet, op model.PatchOperation) error {
	idx, field, err := parsePath(op.Path)
	if err != nil {
		return err
	}

	switch {
	case op.Op == model.PatchOpAdd && idx < 0:
		return applyAdd(set, op.Value)

	case op.Op == model.PatchOpReplace && idx >= 0 && field != "":
		return applyReplaceField(set, idx, field, op.Value)

	case op.Op == model.PatchOpReplace && idx >= 0:
		return applyReplaceRecord(set, idx, op.Value)

	case op.Op == model.PatchOpRemove && idx >= 0 && field == "":
		return applyRemove(set, idx)

	default:
		return fmt.Errorf("%w: %s %s", ErrUnsupportedOperation, op.Op, op.Path)
	}
}

// parsePath splits a supported JSON Pointer into (index, field). An index of
// -1 means the path targets the whole array.
func parsePath(path string) (int, string, error) {
	if path == arrayPath {
		return -1, "", nil
	}
	rest, ok := strings.CutPrefix(path, arrayPath+"/")
	if !ok || rest == "" {
		return 0, "", fmt.Errorf("%w: path %q", ErrUnsupportedOperation, path)
	}

	idxStr, field, _ := strings.Cut(rest, "/")
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 || strings.Contains(field, "/") {
		return 0, "", fmt.Errorf("%w: path %q", ErrUnsupportedOperation, path)
	}
	return idx, field, nil
}

// decodeRecord parses a patch value as a FactRecord. The analysis service
// sometimes double-encodes the record as a JSON string, so a string value is
// unwrapped and parsed again.
func decodeRecord(raw json.RawMessage) (model.FactRecord, error) {
	var rec model.FactRecord

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return rec, fmt.Errorf("%w: %v", ErrMalformedValue, err)
		}
		raw = json.RawMessage(inner)
	}

	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	return rec, nil
}

func applyAdd(set *model.FactSet, raw json.RawMessage) error {
	rec, err := decodeRecord(raw)
	if err != nil {
		return err
	}
	if set.HasID(rec.ID) {
		return fmt.Errorf("%w: duplicate fact id %q", ErrMalformedValue, rec.ID)
	}
	set.ExtractedFacts = append(set.ExtractedFacts, rec)
	return nil
}

func applyReplaceRecord(set *model.FactSet, idx int, raw json.RawMessage) error {
	if idx >= len(set.ExtractedFacts) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, len(set.ExtractedFacts))
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return err
	}
	for j, existing := range set.ExtractedFacts {
		if j != idx && existing.ID == rec.ID {
			return fmt.Errorf("%w: duplicate fact id %q", ErrMalformedValue, rec.ID)
		}
	}
	set.ExtractedFacts[idx] = rec
	return nil
}

func applyReplaceField(set *model.FactSet, idx int, field string, raw json.RawMessage) error {
	if idx >= len(set.ExtractedFacts) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, len(set.ExtractedFacts))
	}
	rec := &set.ExtractedFacts[idx]

	switch field {
	case "id":
		id, err := decodeString(raw)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("%w: id must be non-empty", ErrMalformedValue)
		}
		for j, existing := range set.ExtractedFacts {
			if j != idx && existing.ID == id {
				return fmt.Errorf("%w: duplicate fact id %q", ErrMalformedValue, id)
			}
		}
		rec.ID = id

	case "text":
		text, err := decodeString(raw)
		if err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("%w: text must be non-empty", ErrMalformedValue)
		}
		rec.Text = text

	case "source":
		s, err := decodeString(raw)
		if err != nil {
			return err
		}
		rec.Source = s

	case "confidence":
		var c float64
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("%w: confidence: %v", ErrMalformedValue, err)
		}
		if c < 0 || c > 1 {
			return fmt.Errorf("%w: confidence %g outside [0,1]", ErrMalformedValue, c)
		}
		rec.Confidence = c

	case "category":
		s, err := decodeString(raw)
		if err != nil {
			return err
		}
		rec.Category = s

	case "context":
		s, err := decodeString(raw)
		if err != nil {
			return err
		}
		rec.Context = s

	case "extraction_method":
		s, err := decodeString(raw)
		if err != nil {
			return err
		}
		rec.ExtractionMethod = s

	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return nil
}

func applyRemove(set *model.FactSet, idx int) error {
	if idx >= len(set.ExtractedFacts) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, len(set.ExtractedFacts))
	}
	set.ExtractedFacts = append(set.ExtractedFacts[:idx], set.ExtractedFacts[idx+1:]...)
	return nil
}

func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: expected string: %v", ErrMalformedValue, err)
	}
	return s, nil
}
