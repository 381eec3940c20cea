package expr

import (
	"fmt"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Compile replaces every shorthand `expr` node in the definition with the
// equivalent tree so evaluation never re-parses strings. Errors name the
// question that holds the malformed expression.
func Compile(def *model.FormDefinition) error {
	if def == nil {
		return nil
	}
	for i := range def.Questions {
		if err := compileQuestion(&def.Questions[i], def.Questions[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// Decorator exposes Compile as a model.Decorator.
func Decorator() model.Decorator {
	return model.DecoratorFunc(Compile)
}

func compileQuestion(q *model.QuestionDefinition, path string) error {
	if q.Visibility != nil {
		if err := compileCondition(q.Visibility.ShowWhen, path+".visibility.showWhen"); err != nil {
			return err
		}
		if err := compileCondition(q.Visibility.HideWhen, path+".visibility.hideWhen"); err != nil {
			return err
		}
	}
	for i := range q.ValidationRules {
		if err := compileCondition(q.ValidationRules[i].When, fmt.Sprintf("%s.validationRules[%d].when", path, i)); err != nil {
			return err
		}
	}
	if q.LineItemConfig != nil {
		if err := compileGroup(q.LineItemConfig, path); err != nil {
			return err
		}
	}
	return nil
}

func compileGroup(cfg *model.LineItemGroupConfig, path string) error {
	for i := range cfg.Fields {
		if err := compileQuestion(&cfg.Fields[i], path+"."+cfg.Fields[i].ID); err != nil {
			return err
		}
	}
	if cfg.SectionSelector != nil {
		if err := compileQuestion(cfg.SectionSelector, path+"."+cfg.SectionSelector.ID); err != nil {
			return err
		}
	}
	for i := range cfg.SubGroups {
		sub := &cfg.SubGroups[i]
		if err := compileGroup(&sub.LineItemGroupConfig, path+"."+sub.ID); err != nil {
			return err
		}
	}
	return nil
}

func compileCondition(cond *model.Condition, path string) error {
	if cond == nil {
		return nil
	}
	if cond.Op == model.OpExpr || (cond.Op == "" && cond.Expr != "") {
		compiled, err := Parse(cond.Expr)
		if err != nil {
			return fmt.Errorf("expr: compile %s: %w", path, err)
		}
		if compiled == nil {
			*cond = model.Condition{Op: model.OpAnd}
			return nil
		}
		*cond = *compiled
		return nil
	}
	for i := range cond.Conditions {
		if err := compileCondition(&cond.Conditions[i], path); err != nil {
			return err
		}
	}
	return nil
}
