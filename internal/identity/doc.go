// Package identity resolves the stable identity of discovered PDF files.
//
// The Worker consumes scheduled paths one at a time: it fingerprints the
// content with SHA-256, detects duplicates against a canonical-path table
// behind a chain of verification guards, extracts the document number and
// type through a Classifier, and performs a collision-free atomic rename.
// Every failure path degrades toward "leave the file in place and force
// Review"; no step may destroy the only copy of a document.
package identity
