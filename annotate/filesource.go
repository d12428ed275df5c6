package annotate

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// FileSource is a DocumentSource backed by an HTML file on disk. Outside
// edits to the file are the mutation stream; Commit writes the annotated
// document back in place. Renaming the source with SetLocation models
// page-internal navigation.
type FileSource struct {
	mu       sync.Mutex
	path     string
	location string
}

// NewFileSource creates a file-backed document source. The file's path
// doubles as its initial location.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, location: path}
}

// Snapshot parses the current file contents.
func (f *FileSource) Snapshot() (*goquery.Document, error) {
	f.mu.Lock()
	path := f.path
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return doc, nil
}

// Commit serializes the document and writes it back to the file.
func (f *FileSource) Commit(doc *goquery.Document) error {
	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	f.mu.Lock()
	path := f.path
	f.mu.Unlock()

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

// Location returns the source's current address.
func (f *FileSource) Location() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.location
}

// SetLocation updates the address without reloading, the way a history-API
// navigation changes the URL under the same document.
func (f *FileSource) SetLocation(location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = location
}
