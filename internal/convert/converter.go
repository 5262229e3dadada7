// Package convert turns an input folder of documents into the plain-text
// corpus the analysis service reasons over. Conversion is the one
// embarrassingly parallel stage of the pipeline: documents are independent,
// so they go through the worker pool.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"factloop/internal/model"
	"factloop/internal/worker"
)

// Converter converts supported document types to plain text
type Converter struct {
	workers int
}

// NewConverter creates a converter running with the given parallelism
func NewConverter(workers int) *Converter {
	if workers <= 0 {
		workers = 1
	}
	return &Converter{workers: workers}
}

// supported maps file extensions to conversion handlers
var supported = map[string]func(data []byte) (string, error){
	".txt":  convertPlain,
	".md":   convertPlain,
	".html": convertHTML,
	".htm":  convertHTML,
}

// ConvertDir converts every supported file in dir (non-recursive) and
// returns the corpus with documents in lexical file-name order, regardless
// of completion order.
func (c *Converter) ConvertDir(ctx context.Context, dir string) (model.Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return model.Corpus{}, fmt.Errorf("read input dir: %w", err)
	}

	var names []string
	var corpus model.Corpus
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := supported[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			corpus.Skipped = append(corpus.Skipped, e.Name())
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		return corpus, fmt.Errorf("no supported documents in %s", dir)
	}

	pool := worker.NewPoolContext(ctx, c.workers)
	pool.Start()

	// Drain results while submitting: the pool's queues are bounded, so a
	// large folder would otherwise fill them and wedge.
	go func() {
		defer pool.Finish()
		for _, name := range names {
			pool.Submit(&convertJob{path: filepath.Join(dir, name), name: name})
		}
	}()

	byName := make(map[string]model.Document, len(names))
	var convErr error
	for res := range pool.Results() {
		r := res.(*convertResult)
		if r.err != nil && convErr == nil {
			convErr = fmt.Errorf("convert %s: %w", r.doc.Name, r.err)
		}
		byName[r.doc.Name] = r.doc
	}
	if convErr != nil {
		return model.Corpus{}, convErr
	}

	if err := ctx.Err(); err != nil {
		return model.Corpus{}, err
	}

	for _, name := range names {
		corpus.Documents = append(corpus.Documents, byName[name])
	}
	return corpus, nil
}

// convertJob converts a single file
type convertJob struct {
	path string
	name string
}

// convertResult is the outcome of one conversion job
type convertResult struct {
	doc model.Document
	err error
}

// GetError returns the conversion error, if any
func (r *convertResult) GetError() error { return r.err }

// Execute reads and converts the file
func (j *convertJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return &convertResult{doc: model.Document{Name: j.name}, err: err}
	}

	data, err := os.ReadFile(j.path)
	if err != nil {
		return &convertResult{doc: model.Document{Name: j.name}, err: err}
	}

	handler := supported[strings.ToLower(filepath.Ext(j.name))]
	text, err := handler(data)
	if err != nil {
		return &convertResult{doc: model.Document{Name: j.name}, err: err}
	}

	return &convertResult{doc: model.Document{Name: j.name, Text: text}}
}

func convertPlain(data []byte) (string, error) {
	return strings.TrimSpace(string(data)), nil
}

// convertHTML extracts visible text, skipping script/style/noscript/iframe
func convertHTML(data []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), nil
}
