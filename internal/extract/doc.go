// Package extract turns raw model output into structured file sets.
//
// Model output is free-form text: code fences, explanatory prose, think
// spans, and (for multi-file targets) repeated "=== path ===" section
// headers. This package owns the cleanup cascade that recovers just the
// code, the section parser that splits text into an ordered path→content
// mapping, and the per-framework post-processors that enforce each target's
// structural invariants (required files, JSON validity, dependency pins,
// requirements synthesis).
//
// Every operation here is a pure in-memory function: no I/O, no goroutines,
// deterministic for a given input. Cleanup never fails; any internal
// trip-up falls back to returning the input unchanged. Structural
// validation failures are hard errors naming the offending file.
package extract
