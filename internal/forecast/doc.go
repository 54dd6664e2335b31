// Package forecast implements the demand estimator: a seeded random forest
// (bagged CART trees) over the lag-feature supervised dataset, with a
// regression mode for next-month quantity, a top-K membership mode, and a
// per-line label-frequency mode kept as a heuristic alternative.
//
// Determinism: all randomness flows from one seeded source and trees are
// built sequentially, so identical inputs and seed produce identical models,
// metrics and rankings.
package forecast
