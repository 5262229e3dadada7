package model

// Document is one converted source document
type Document struct {
	Name string `json:"name"` // Original file name, used as the fact source identifier
	Text string `json:"text"` // Plain-text content after conversion
}

// Corpus is the converted source material the analysis service reasons over
type Corpus struct {
	Documents []Document `json:"documents"`
	Skipped   []string   `json:"skipped,omitempty"` // Files skipped during conversion (unsupported types)
}

// TotalBytes returns the combined text size of all documents
func (c Corpus) TotalBytes() int {
	n := 0
	for _, d := range c.Documents {
		n += len(d.Text)
	}
	return n
}
