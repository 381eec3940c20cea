package model

// ConditionOp tags the node kind of a Condition tree.
type ConditionOp string

const (
	OpEquals         ConditionOp = "equals"
	OpNotEquals      ConditionOp = "notEquals"
	OpIn             ConditionOp = "in"
	OpNotIn          ConditionOp = "notIn"
	OpIsEmpty        ConditionOp = "isEmpty"
	OpNotEmpty       ConditionOp = "notEmpty"
	OpGreaterThan    ConditionOp = "gt"
	OpGreaterOrEqual ConditionOp = "gte"
	OpLessThan       ConditionOp = "lt"
	OpLessOrEqual    ConditionOp = "lte"
	OpAnd            ConditionOp = "and"
	OpOr             ConditionOp = "or"
	OpNot            ConditionOp = "not"
	// OpExpr marks a node holding a shorthand expression string that is
	// compiled into a tree by the definition loader.
	OpExpr ConditionOp = "expr"
)

// Condition is a node of the shared condition language used by visibility,
// option filters and validation rules.
//
// Comparison nodes read Field and compare it against Value, Values (in/notIn)
// or the value of the field named by Ref. Combinator nodes hold their operands
// in Conditions; `not` uses the first operand only.
type Condition struct {
	Op         ConditionOp `json:"op,omitempty" yaml:"op,omitempty"`
	Field      string      `json:"field,omitempty" yaml:"field,omitempty"`
	Value      any         `json:"value,omitempty" yaml:"value,omitempty"`
	Values     []any       `json:"values,omitempty" yaml:"values,omitempty"`
	Ref        string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Expr       string      `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Fields returns every field id referenced by the tree, in first-seen order.
func (c *Condition) Fields() []string {
	if c == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	var walk func(node *Condition)
	walk = func(node *Condition) {
		for _, id := range []string{node.Field, node.Ref} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		for i := range node.Conditions {
			walk(&node.Conditions[i])
		}
	}
	walk(c)
	return out
}

// Equal builds an equals node.
func Equal(field string, value any) Condition {
	return Condition{Op: OpEquals, Field: field, Value: value}
}

// In builds a membership node.
func In(field string, values ...any) Condition {
	return Condition{Op: OpIn, Field: field, Values: values}
}

// NotEmpty builds a notEmpty node.
func NotEmpty(field string) Condition {
	return Condition{Op: OpNotEmpty, Field: field}
}

// Empty builds an isEmpty node.
func Empty(field string) Condition {
	return Condition{Op: OpIsEmpty, Field: field}
}

// All combines conditions with AND.
func All(conditions ...Condition) Condition {
	return Condition{Op: OpAnd, Conditions: conditions}
}

// Any combines conditions with OR.
func Any(conditions ...Condition) Condition {
	return Condition{Op: OpOr, Conditions: conditions}
}

// Not negates a condition.
func Not(condition Condition) Condition {
	return Condition{Op: OpNot, Conditions: []Condition{condition}}
}
