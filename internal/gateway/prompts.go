package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"factloop/internal/model"
)

const (
	extractionSystemPrompt = "You are a careful fact extraction engine. You respond with a single JSON object and nothing else."
	assessmentSystemPrompt = "You are a coverage auditor comparing a fact set against source documents. You respond with a single JSON object and nothing else."
	patchSystemPrompt      = "You are a correction engine that emits RFC 6902 JSON Patch operations. You respond with a single JSON object and nothing else."

	// Documents larger than this are truncated in prompts to bound token use
	maxDocBytes = 60_000
)

func buildExtractionPrompt(corpus model.Corpus) string {
	var b strings.Builder

	b.WriteString(`Extract every discrete factual statement from the source documents below.

Respond with JSON of this exact shape:
{"extracted_facts": [{"id": string, "text": string, "source": string, "confidence": number, "category": string, "context": string, "extraction_method": string}], "extraction_metadata": object}

Rules:
1. One record per atomic factual claim. Do not merge unrelated claims.
2. "source" is the document name the fact came from.
3. "confidence" is your extraction confidence in [0,1].
4. "id" must be unique across the whole array.
`)
	writeCorpus(&b, corpus)
	return b.String()
}

func buildAssessmentPrompt(corpus model.Corpus, set model.FactSet) string {
	var b strings.Builder

	b.WriteString(`Compare the current fact set against the source documents and judge its coverage.

Respond with JSON of this exact shape:
{"coverage_analysis": {"missing_facts": [string], "incorrect_facts": [string], "recommendations": [string]}}

Rules:
1. "missing_facts" describes facts present in the sources but absent from the set.
2. "incorrect_facts" describes records that misstate what the sources say.
3. If coverage is complete and correct, return empty arrays.
`)
	writeFactSet(&b, set)
	writeCorpus(&b, corpus)
	return b.String()
}

func buildPatchPrompt(corpus model.Corpus, assessment model.AssessmentResult, set model.FactSet) string {
	var b strings.Builder

	b.WriteString(`Turn the coverage assessment below into RFC 6902 JSON Patch operations against the fact set.

Respond with JSON of this exact shape:
{"patch": [{"op": "add"|"replace"|"remove", "path": string, "value": any}]}

Rules:
1. "add" uses path "/extracted_facts" with a complete fact record as the value.
2. "replace" uses path "/extracted_facts/<index>/<field>" with the corrected field value, or "/extracted_facts/<index>" with a complete record.
3. "remove" uses path "/extracted_facts/<index>" with no value.
4. Indices refer to the fact set as it stands after each preceding operation in your list has been applied.
5. If no corrections are warranted, return an empty "patch" array.

Assessment:
`)
	writeLines(&b, "missing", assessment.MissingFacts)
	writeLines(&b, "incorrect", assessment.IncorrectFacts)

	writeFactSet(&b, set)
	writeCorpus(&b, corpus)
	return b.String()
}

func writeLines(b *strings.Builder, label string, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(b, "- [%s] %s\n", label, l)
	}
}

func writeFactSet(b *strings.Builder, set model.FactSet) {
	b.WriteString("\nCurrent fact set:\n")
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		// FactSet is plain data; this cannot realistically fail
		b.WriteString("{}")
		return
	}
	b.Write(data)
	b.WriteString("\n")
}

func writeCorpus(b *strings.Builder, corpus model.Corpus) {
	b.WriteString("\nSource documents:\n")
	for _, doc := range corpus.Documents {
		text := doc.Text
		if len(text) > maxDocBytes {
			text = text[:maxDocBytes] + "\n[truncated]"
		}
		fmt.Fprintf(b, "\n=== %s ===\n%s\n", doc.Name, text)
	}
}
