// Package convert implements the conversion unit: one source document rendered,
// post-processed and spliced into its output document.
//
// A Converter owns no state besides its collaborators and a table of per-output
// locks. Conversions of distinct outputs run fully in parallel; conversions that
// target the same output are serialized so the last write is always a complete
// document built from a complete read.
package convert
