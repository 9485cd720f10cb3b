package slidescene

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// XML namespace and relationship type constants.
const (
	nsOfficeDocRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDoc   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeImage       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeChart       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	relTypeCoreProps   = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"

	defaultPresentationPart = "ppt/presentation.xml"
)

// maxZipEntrySize is the maximum allowed size for a single file extracted from a ZIP.
// This prevents zip bomb attacks. 50 MB is generous for any legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the cumulative limit for all extracted content from a single ZIP.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

// relationship is one entry of a .rels part.
type relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// pptxPackage is an opened archive with a part index and per-part caches.
// It is confined to a single Import call and is not safe for concurrent use.
type pptxPackage struct {
	files     map[string]*zip.File
	extracted int64
	parts     map[string][]byte
	trees     map[string]*node
	rels      map[string]map[string]relationship
}

// openPackage validates and indexes the archive. Any failure here is a
// whole-document failure.
func openPackage(r io.ReaderAt, size int64) (*pptxPackage, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidArchive)
	}
	if size > int64(maxZipTotalSize) {
		return nil, fmt.Errorf("%w: file size %d exceeds maximum allowed (%d bytes)", ErrInvalidArchive, size, maxZipTotalSize)
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if len(zr.File) > maxZipEntries {
		return nil, fmt.Errorf("%w: zip archive contains too many entries (%d > %d)", ErrInvalidArchive, len(zr.File), maxZipEntries)
	}
	p := &pptxPackage{
		files: make(map[string]*zip.File, len(zr.File)),
		parts: make(map[string][]byte),
		trees: make(map[string]*node),
		rels:  make(map[string]map[string]relationship),
	}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}
	return p, nil
}

func (p *pptxPackage) has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// read returns the bytes of a part, enforcing per-entry and cumulative limits.
func (p *pptxPackage) read(name string) ([]byte, error) {
	if data, ok := p.parts[name]; ok {
		return data, nil
	}
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", name, maxZipEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", name, err)
	}
	if int64(len(data)) > int64(maxZipEntrySize) {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", name)
	}
	p.extracted += int64(len(data))
	if p.extracted > maxZipTotalSize {
		return nil, fmt.Errorf("cumulative extracted size exceeds %d bytes", maxZipTotalSize)
	}
	p.parts[name] = data
	return data, nil
}

// tree returns the parsed element tree of an XML part.
func (p *pptxPackage) tree(name string) (*node, error) {
	if n, ok := p.trees[name]; ok {
		return n, nil
	}
	data, err := p.read(name)
	if err != nil {
		return nil, err
	}
	n, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p.trees[name] = n
	return n, nil
}

// relsPath returns the relationships part for a given part, e.g.
// ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPath(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// relationships returns the relationships of part keyed by id. A missing
// .rels part yields an empty map.
func (p *pptxPackage) relationships(part string) map[string]relationship {
	if m, ok := p.rels[part]; ok {
		return m
	}
	m := make(map[string]relationship)
	p.rels[part] = m
	root, err := p.tree(relsPath(part))
	if err != nil {
		return m
	}
	for _, r := range root.all("Relationship") {
		rel := relationship{
			ID:         r.attrOr("Id", ""),
			Type:       r.attrOr("Type", ""),
			Target:     r.attrOr("Target", ""),
			TargetMode: r.attrOr("TargetMode", ""),
		}
		if rel.ID != "" {
			m[rel.ID] = rel
		}
	}
	return m
}

// target resolves a relationship id of part to an absolute part name.
// External targets and unknown ids report false.
func (p *pptxPackage) target(part, id string) (string, bool) {
	rel, ok := p.relationships(part)[id]
	if !ok || strings.EqualFold(rel.TargetMode, "External") || rel.Target == "" {
		return "", false
	}
	return resolveRelativePath(path.Dir(part), rel.Target), true
}

// targetOfType returns the first relationship target of the given type.
// Ids are compared in lexical order so the choice is stable.
func (p *pptxPackage) targetOfType(part, relType string) (string, bool) {
	var best *relationship
	for _, rel := range p.relationships(part) {
		if rel.Type != relType || strings.EqualFold(rel.TargetMode, "External") {
			continue
		}
		if best == nil || rel.ID < best.ID {
			r := rel
			best = &r
		}
	}
	if best == nil {
		return "", false
	}
	return resolveRelativePath(path.Dir(part), best.Target), true
}

// resolveRelativePath joins a relationship target onto the directory of its
// source part. Results that would escape the package root are confined to
// ppt/ so a malicious target cannot address arbitrary entries.
func resolveRelativePath(baseDir, rel string) string {
	if strings.HasPrefix(rel, "/") {
		return strings.TrimPrefix(path.Clean(rel), "/")
	}
	joined := path.Clean(path.Join(baseDir, rel))
	if strings.HasPrefix(joined, "../") || joined == ".." {
		joined = "ppt/" + strings.TrimLeft(strings.ReplaceAll(joined, "../", ""), "./")
	}
	return joined
}

// presentationPart finds the main document part through _rels/.rels,
// falling back to the conventional location.
func (p *pptxPackage) presentationPart() (string, error) {
	if root, err := p.tree("_rels/.rels"); err == nil {
		for _, r := range root.all("Relationship") {
			if r.attrOr("Type", "") == relTypeOfficeDoc {
				name := resolveRelativePath("", r.attrOr("Target", ""))
				if p.has(name) {
					return name, nil
				}
			}
		}
	}
	if p.has(defaultPresentationPart) {
		return defaultPresentationPart, nil
	}
	return "", fmt.Errorf("%w: presentation part not found", ErrInvalidArchive)
}

// mediaPayload reads a binary part referenced from part by id.
func (p *pptxPackage) mediaPayload(part, id string) ([]byte, string, error) {
	name, ok := p.target(part, id)
	if !ok {
		return nil, "", fmt.Errorf("%w: relationship %s of %s", ErrMissingPart, id, part)
	}
	data, err := p.read(name)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty media part " + name)
	}
	return data, name, nil
}
