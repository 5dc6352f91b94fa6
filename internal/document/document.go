// Package document holds the text buffer a rewrite pipeline transforms and
// the file adapter that loads and persists it.
package document

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Document is an in-memory source file. Version starts at zero and grows by
// one on every replacement that changes the text.
type Document struct {
	path     string
	encoding string
	perm     uint32
	original string
	text     string
	version  int
}

// New returns a document holding text with no backing file.
func New(text string) *Document {
	return &Document{original: text, text: text}
}

// Snapshot is a saved document state.
type Snapshot struct {
	text    string
	version int
}

// Version returns the version the snapshot was taken at.
func (s Snapshot) Version() int { return s.version }

// Text returns the current buffer.
func (d *Document) Text() string { return d.text }

// Version returns the number of changing replacements so far.
func (d *Document) Version() int { return d.version }

// Path returns the resolved file path, or "" for in-memory documents.
func (d *Document) Path() string { return d.path }

// Encoding returns the encoding the document was loaded with.
func (d *Document) Encoding() string { return d.encoding }

// Original returns the text as loaded.
func (d *Document) Original() string { return d.original }

// Replace swaps the buffer for text and reports whether it changed.
func (d *Document) Replace(text string) bool {
	if text == d.text {
		return false
	}
	d.text = text
	d.version++
	return true
}

// Changed reports whether the buffer differs from the loaded text.
func (d *Document) Changed() bool {
	return d.text != d.original
}

// Snapshot captures the current buffer.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{text: d.text, version: d.version}
}

// Restore puts the buffer back to s. The version keeps growing so a restore
// is observable like any other change.
func (d *Document) Restore(s Snapshot) {
	d.Replace(s.text)
}

// Fingerprint returns the hex BLAKE3-256 digest of the current buffer.
func (d *Document) Fingerprint() string {
	return Fingerprint(d.text)
}

// Fingerprint returns the hex BLAKE3-256 digest of text.
func Fingerprint(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
