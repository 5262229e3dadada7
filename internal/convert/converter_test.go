package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "plain text content")
	writeFile(t, dir, "a.md", "# heading\n\nmarkdown content")
	writeFile(t, dir, "c.html", `<html><head><script>alert(1)</script><style>p{}</style></head><body><p>visible</p><p>text</p></body></html>`)
	writeFile(t, dir, "ignore.pdf", "binary")

	c := NewConverter(4)
	corpus, err := c.ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ConvertDir: %v", err)
	}

	if len(corpus.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(corpus.Documents))
	}

	// Lexical order regardless of completion order
	names := []string{corpus.Documents[0].Name, corpus.Documents[1].Name, corpus.Documents[2].Name}
	if names[0] != "a.md" || names[1] != "b.txt" || names[2] != "c.html" {
		t.Errorf("unexpected order: %v", names)
	}

	htmlDoc := corpus.Documents[2]
	if !strings.Contains(htmlDoc.Text, "visible") || !strings.Contains(htmlDoc.Text, "text") {
		t.Errorf("visible text not extracted: %q", htmlDoc.Text)
	}
	if strings.Contains(htmlDoc.Text, "alert") || strings.Contains(htmlDoc.Text, "p{}") {
		t.Errorf("script/style leaked into text: %q", htmlDoc.Text)
	}

	if len(corpus.Skipped) != 1 || corpus.Skipped[0] != "ignore.pdf" {
		t.Errorf("expected ignore.pdf skipped, got %v", corpus.Skipped)
	}
}

func TestConvertDir_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.pdf", "binary")

	c := NewConverter(2)
	if _, err := c.ConvertDir(context.Background(), dir); err == nil {
		t.Fatal("expected error for folder with no supported documents")
	}
}

func TestConvertDir_MissingDir(t *testing.T) {
	c := NewConverter(2)
	if _, err := c.ConvertDir(context.Background(), "/nonexistent/path"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestConvertDir_SubdirsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "top level")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "nested"), "deep.txt", "nested")

	c := NewConverter(2)
	corpus, err := c.ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ConvertDir: %v", err)
	}
	if len(corpus.Documents) != 1 || corpus.Documents[0].Name != "a.txt" {
		t.Errorf("conversion is not non-recursive: %+v", corpus.Documents)
	}
}

func TestConvertDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeFile(t, dir, name, "content")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConverter(2)
	_, err := c.ConvertDir(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConvertHTML_Malformed(t *testing.T) {
	// html.Parse is forgiving; even fragments produce text
	text, err := convertHTML([]byte("<p>unclosed"))
	if err != nil {
		t.Fatalf("convertHTML: %v", err)
	}
	if text != "unclosed" {
		t.Errorf("expected %q, got %q", "unclosed", text)
	}
}

func TestCorpusTotalBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "12345")
	writeFile(t, dir, "b.txt", "678")

	c := NewConverter(1)
	corpus, err := c.ConvertDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ConvertDir: %v", err)
	}
	if corpus.TotalBytes() != 8 {
		t.Errorf("expected 8 bytes, got %d", corpus.TotalBytes())
	}
}
