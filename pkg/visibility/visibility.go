// Package visibility decides whether a question is hidden for the current
// values. Row fields are evaluated with a row scope so conditions can mix the
// row's own fields with header-level fields.
package visibility

import (
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/expr"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// ShouldHideField reports whether a field with the supplied visibility config
// is hidden. A nil config never hides. Malformed conditions never hide so an
// authoring mistake degrades to a visible field.
func ShouldHideField(vis *model.Visibility, ctx expr.Context, scope *expr.RowScope) bool {
	if vis == nil {
		return false
	}
	scoped := expr.Scoped(ctx, scope)

	if vis.HideWhen != nil {
		hide, err := expr.Check(vis.HideWhen, scoped)
		if err == nil && hide {
			return true
		}
	}
	if vis.ShowWhen != nil {
		show, err := expr.Check(vis.ShowWhen, scoped)
		if err == nil && !show {
			return true
		}
	}
	return false
}

// Hidden is a convenience for questions.
func Hidden(q model.QuestionDefinition, ctx expr.Context, scope *expr.RowScope) bool {
	return ShouldHideField(q.Visibility, ctx, scope)
}

// Evaluator resolves hidden state for the questions of a definition against
// one values snapshot. It satisfies the IsHidden contract used by validation.
type Evaluator struct {
	ctx       expr.Context
	scope     *expr.RowScope
	questions map[string]model.QuestionDefinition
}

// NewEvaluator indexes questions by id. Row fields take precedence over
// top-level questions with the same id when a scope is set.
func NewEvaluator(ctx expr.Context, scope *expr.RowScope, questions ...[]model.QuestionDefinition) *Evaluator {
	index := make(map[string]model.QuestionDefinition)
	for _, list := range questions {
		for _, q := range list {
			if _, exists := index[q.ID]; exists {
				continue
			}
			index[q.ID] = q
		}
	}
	return &Evaluator{ctx: ctx, scope: scope, questions: index}
}

// IsHidden reports whether the question with fieldID is hidden. Unknown ids
// are visible.
func (e *Evaluator) IsHidden(fieldID string) bool {
	if e == nil {
		return false
	}
	q, ok := e.questions[fieldID]
	if !ok {
		return false
	}
	return ShouldHideField(q.Visibility, e.ctx, e.scope)
}

// GetValue resolves a value through the evaluator's scoped context.
func (e *Evaluator) GetValue(fieldID string) any {
	if e == nil || e.ctx == nil {
		return nil
	}
	return expr.Scoped(e.ctx, e.scope).GetValue(fieldID)
}
