// Package orchestrator runs the per-event pass of the rule engine over
// immutable state snapshots: a value write, selection effects, line-item
// reconciliation and value-map refresh, repeated until the state settles.
package orchestrator
