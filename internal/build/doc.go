// Package build runs full, non-incremental rebuilds of the output tree.
//
// A build deletes every generated output, then converts every source document
// concurrently. All deletions finish before the first conversion starts so the
// cleanup pass can never remove a freshly written output. A failed conversion
// is counted in the Report and never cancels its siblings.
package build
