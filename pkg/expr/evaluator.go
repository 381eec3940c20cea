// Package expr evaluates the condition trees shared by visibility rules,
// option filters and validation rules.
//
// Supported node kinds:
//   - comparisons: equals, notEquals (against Value or the field named by Ref)
//   - membership: in, notIn (against Values)
//   - emptiness: isEmpty, notEmpty
//   - numeric ordering: gt, gte, lt, lte
//   - composition: and, or, not
//   - shorthand: expr (`status == "open" && qty > 0`), see Parse
//
// Missing values are empty, never errors. A multi-select value matches an
// equality or membership test when any of its members matches. Strings
// compare exactly; two numeric strings compare as numbers.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// ErrUnknownOperator is returned by Check for trees carrying an unsupported
// node kind or a combinator without operands where one is required.
var ErrUnknownOperator = errors.New("expr: unknown operator")

// Evaluate reports whether cond holds against ctx. Malformed trees evaluate
// to false. A nil condition holds.
func Evaluate(cond *model.Condition, ctx Context) bool {
	ok, err := Check(cond, ctx)
	if err != nil {
		return false
	}
	return ok
}

// Check evaluates cond and reports malformed trees as errors so callers can
// pick their own safe default.
func Check(cond *model.Condition, ctx Context) (bool, error) {
	if cond == nil {
		return true, nil
	}
	if ctx == nil {
		ctx = ValuesContext{}
	}
	return eval(*cond, ctx)
}

func eval(cond model.Condition, ctx Context) (bool, error) {
	op := cond.Op
	if op == "" && strings.TrimSpace(cond.Expr) != "" {
		op = model.OpExpr
	}

	switch op {
	case model.OpEquals:
		return equals(ctx.GetValue(cond.Field), operand(cond, ctx)), nil
	case model.OpNotEquals:
		return !equals(ctx.GetValue(cond.Field), operand(cond, ctx)), nil
	case model.OpIn:
		return member(ctx.GetValue(cond.Field), cond.Values), nil
	case model.OpNotIn:
		return !member(ctx.GetValue(cond.Field), cond.Values), nil
	case model.OpIsEmpty:
		return model.IsEmpty(ctx.GetValue(cond.Field)), nil
	case model.OpNotEmpty:
		return !model.IsEmpty(ctx.GetValue(cond.Field)), nil
	case model.OpGreaterThan, model.OpGreaterOrEqual, model.OpLessThan, model.OpLessOrEqual:
		return compare(op, ctx.GetValue(cond.Field), operand(cond, ctx)), nil
	case model.OpAnd:
		for _, child := range cond.Conditions {
			ok, err := eval(child, ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case model.OpOr:
		for _, child := range cond.Conditions {
			ok, err := eval(child, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case model.OpNot:
		if len(cond.Conditions) == 0 {
			return false, fmt.Errorf("%w: not without operand", ErrUnknownOperator)
		}
		ok, err := eval(cond.Conditions[0], ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case model.OpExpr:
		compiled, err := Parse(cond.Expr)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnknownOperator, err)
		}
		if compiled == nil {
			return true, nil
		}
		return eval(*compiled, ctx)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, string(cond.Op))
	}
}

func operand(cond model.Condition, ctx Context) any {
	if cond.Ref != "" {
		return ctx.GetValue(cond.Ref)
	}
	return cond.Value
}

func equals(left, right any) bool {
	if model.IsEmpty(right) {
		return model.IsEmpty(left)
	}
	rightMembers := model.ToStrings(right)
	for _, l := range model.ToStrings(left) {
		for _, r := range rightMembers {
			if scalarEqual(l, r) {
				return true
			}
		}
	}
	return false
}

func member(value any, candidates []any) bool {
	if len(candidates) == 0 {
		return false
	}
	members := model.ToStrings(value)
	for _, candidate := range candidates {
		for _, want := range model.ToStrings(candidate) {
			for _, got := range members {
				if scalarEqual(got, want) {
					return true
				}
			}
		}
	}
	return false
}

func scalarEqual(a, b string) bool {
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa == fb
	}
	return false
}

func compare(op model.ConditionOp, left, right any) bool {
	want, ok := coerceNumber(right)
	if !ok {
		return false
	}
	for _, member := range numericMembers(left) {
		switch op {
		case model.OpGreaterThan:
			if member > want {
				return true
			}
		case model.OpGreaterOrEqual:
			if member >= want {
				return true
			}
		case model.OpLessThan:
			if member < want {
				return true
			}
		case model.OpLessOrEqual:
			if member <= want {
				return true
			}
		}
	}
	return false
}

func numericMembers(value any) []float64 {
	switch v := value.(type) {
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			out = append(out, numericMembers(item)...)
		}
		return out
	case []string:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			out = append(out, numericMembers(item)...)
		}
		return out
	}
	if n, ok := coerceNumber(value); ok {
		return []float64{n}
	}
	return nil
}

func coerceNumber(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
