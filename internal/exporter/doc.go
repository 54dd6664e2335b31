// Package exporter writes the derived artifacts of a pipeline run.
//
// Three artifact families are produced under the reports directory:
//
// Ranking tables: the historical and predicted demand rankings, each as a
// CSV (with UTF-8 BOM for Excel compatibility) plus a JSON twin for
// programmatic consumers.
//
// Unified dataset: the full merged per-line record set, streamed row by row
// so large inputs do not buffer in memory.
//
// Run summary: the KPI and counter summary as JSON.
//
// Every artifact is derived state; re-running the pipeline overwrites the
// previous files unconditionally.
package exporter
