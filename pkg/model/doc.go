// Package model defines the declarative form definition consumed by the rule
// engine together with the value and row snapshots the engine reads and
// returns. A FormDefinition is an ordered list of questions; scalar questions
// hold a single value (or a list for checkbox questions) while
// LINE_ITEM_GROUP questions own a LineItemGroupConfig describing the fields of
// one row, the add mode, the anchor field used by auto-add reconciliation and
// optional sub-groups that are instantiated once per parent row.
//
// Conditions (visibility, option filters, validation `when` clauses) share the
// Condition tagged union. Values are plain Go values decoded from JSON or YAML
// (string, float64, bool, []any, ...); the helpers in this package normalise
// them so callers never need to care whether a value came from a record, a
// prompt or a test literal.
package model
