// Package pipeline implements the batch retail analytics pipeline: merging
// the four input tables into unified sale-line records, aggregating demand
// into a dense product-by-month matrix, slicing the matrix into a trailing
// lag-window supervised dataset, and orchestrating the demand estimator and
// artifact export around those stages.
//
// The typical data flow:
//
//	Workbooks → loader.Tables → Merger → UnifiedRecords → MonthlyMatrix →
//	SupervisedDataset → forecast.Estimator → ranked tables
//
// Every stage takes its tunables from config.PipelineConfig; nothing is read
// from package-level state, so several configurations can run in the same
// process without interference.
package pipeline
