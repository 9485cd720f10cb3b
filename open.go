package slidescene

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Import parses a PPTX payload into a Deck. Only whole-document failures
// are returned (wrapping ErrInvalidArchive); anything that goes wrong
// inside a slide yields a placeholder slide and increments
// Metadata.Stats.Errors.
func Import(data []byte, opts ...Option) (*Deck, error) {
	return ImportReader(bytes.NewReader(data), int64(len(data)), opts...)
}

// ImportReader imports a PPTX from an io.ReaderAt with the given size.
func ImportReader(r io.ReaderAt, size int64, opts ...Option) (*Deck, error) {
	cfg := defaultImportConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	pkg, err := openPackage(r, size)
	if err != nil {
		return nil, err
	}
	doc, err := newDocument(pkg, cfg)
	if err != nil {
		return nil, err
	}
	return doc.build(), nil
}

// ImportFile reads a PPTX file from disk.
// This is a convenience wrapper around ImportReader.
func ImportFile(path string, opts ...Option) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return ImportReader(f, info.Size(), opts...)
}
