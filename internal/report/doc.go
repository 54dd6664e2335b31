// Package report derives human-facing insights from a pipeline run (KPI
// summary, month-over-month drop alerts) and serves the run's artifacts over
// HTTP for dashboards and ad-hoc inspection.
package report
