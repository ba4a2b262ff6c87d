// Package dataprocessing implements the sales export cleaning and enrichment
// pipeline and the summary views derived from its output.
//
// # Architecture
//
// The package is organized around two entry points:
//
// 1. Pipeline: turns a raw row table into the canonical cleaned table
// 2. Summarizer: derives grouped summary views from the cleaned table
//
// # Data Flow
//
// The pipeline stages run in a fixed order; each stage consumes the previous
// stage's output:
//
//	RawTable → parse → date exclusion → dedup → outlier filters → enrich → CleanedTable
//
// The outlier stage itself narrows sequentially (price, then rating, then
// rating count) with quartile statistics recomputed against each shrinking
// survivor set. Reordering those sub-filters changes results.
//
// # Error Handling
//
// The pipeline degrades by filtering rather than failing. Unparseable dates
// drop their rows; non-numeric cells become NaN and are filtered later.
// Only an unreadable table or a missing Order Date column propagate as
// errors to the caller.
//
// # Concurrency
//
// A pipeline run is single-threaded and pure. The cleaned table it returns
// is immutable; Summarizer computes its views in parallel against the same
// snapshot.
package dataprocessing
