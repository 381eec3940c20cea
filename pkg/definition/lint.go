package definition

import (
	"fmt"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Issue is one lint finding; Path locates it inside the definition.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// LintError wraps the issues of a definition rejected by WithLint.
type LintError struct {
	Source string
	Issues []Issue
}

func (e *LintError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("definition: %s has %d lint issue(s): %s", e.Source, len(e.Issues), strings.Join(parts, "; "))
}

var knownTypes = map[model.QuestionType]struct{}{
	model.QuestionTypeText:          {},
	model.QuestionTypeParagraph:     {},
	model.QuestionTypeNumber:        {},
	model.QuestionTypeDate:          {},
	model.QuestionTypeChoice:        {},
	model.QuestionTypeCheckbox:      {},
	model.QuestionTypeFileUpload:    {},
	model.QuestionTypeLineItemGroup: {},
}

var knownOps = map[model.ConditionOp]struct{}{
	model.OpEquals: {}, model.OpNotEquals: {}, model.OpIn: {}, model.OpNotIn: {},
	model.OpIsEmpty: {}, model.OpNotEmpty: {},
	model.OpGreaterThan: {}, model.OpGreaterOrEqual: {}, model.OpLessThan: {}, model.OpLessOrEqual: {},
	model.OpAnd: {}, model.OpOr: {}, model.OpNot: {},
}

// Lint reports authoring mistakes: duplicate or empty ids, unknown types and
// operators, auto/overlay groups without a usable anchor, nesting deeper than
// one sub-group level, and references to fields or groups that do not exist.
// Issues are returned in definition order.
func Lint(def *model.FormDefinition) []Issue {
	if def == nil {
		return []Issue{{Path: "", Message: "definition is nil"}}
	}
	l := &linter{fields: make(map[string]struct{}), groups: make(map[string]struct{})}
	l.index(def)

	seen := make(map[string]struct{}, len(def.Questions))
	for i := range def.Questions {
		q := &def.Questions[i]
		path := questionPath("questions", i, q.ID)
		l.unique(seen, q.ID, path)
		l.question(q, path)
		if q.Type == model.QuestionTypeLineItemGroup {
			if q.LineItemConfig == nil {
				l.add(path, "line item group has no lineItemConfig")
				continue
			}
			l.group(q.LineItemConfig, path, 0)
		}
	}
	return l.issues
}

type linter struct {
	fields map[string]struct{}
	groups map[string]struct{}
	issues []Issue
}

func (l *linter) add(path, format string, args ...any) {
	l.issues = append(l.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) index(def *model.FormDefinition) {
	var walk func(cfg *model.LineItemGroupConfig)
	walk = func(cfg *model.LineItemGroupConfig) {
		if cfg.SectionSelector != nil {
			l.fields[cfg.SectionSelector.ID] = struct{}{}
		}
		for _, field := range cfg.Fields {
			l.fields[field.ID] = struct{}{}
		}
		for i := range cfg.SubGroups {
			l.groups[cfg.SubGroups[i].ID] = struct{}{}
			walk(&cfg.SubGroups[i].LineItemGroupConfig)
		}
	}
	for _, q := range def.Questions {
		l.fields[q.ID] = struct{}{}
		if q.LineItemConfig != nil {
			l.groups[q.ID] = struct{}{}
			walk(q.LineItemConfig)
		}
	}
}

func (l *linter) unique(seen map[string]struct{}, id, path string) {
	if id == "" {
		l.add(path, "id is empty")
		return
	}
	if _, dup := seen[id]; dup {
		l.add(path, "duplicate id %q", id)
		return
	}
	seen[id] = struct{}{}
}

func (l *linter) question(q *model.QuestionDefinition, path string) {
	if _, ok := knownTypes[q.Type]; !ok {
		l.add(path, "unknown question type %q", q.Type)
	}
	if q.Visibility != nil {
		l.condition(q.Visibility.ShowWhen, path+".visibility.showWhen")
		l.condition(q.Visibility.HideWhen, path+".visibility.hideWhen")
	}
	if q.OptionFilter != nil {
		if !q.Type.HasOptions() {
			l.add(path, "optionFilter on a %s question", q.Type)
		}
		l.references(q.OptionFilter.DependsOn, path+".optionFilter.dependsOn")
	}
	if q.Type.HasOptions() && q.Options.Empty() && q.OptionSource == nil {
		l.add(path, "choice question declares neither options nor optionSource")
	}
	for i, rule := range q.ValidationRules {
		rulePath := fmt.Sprintf("%s.validationRules[%d]", path, i)
		if rule.When == nil {
			l.add(rulePath, "rule has no when condition")
		}
		l.condition(rule.When, rulePath+".when")
		if rule.Then.FieldID != "" {
			l.references([]string{rule.Then.FieldID}, rulePath+".then.fieldId")
		}
		switch rule.Phase {
		case "", model.PhaseChange, model.PhaseSubmit:
		default:
			l.add(rulePath, "unknown phase %q", rule.Phase)
		}
	}
	for i, effect := range q.SelectionEffects {
		effectPath := fmt.Sprintf("%s.selectionEffects[%d]", path, i)
		switch effect.Type {
		case model.EffectAddLineItems, model.EffectClearLineItems:
		default:
			l.add(effectPath, "unknown effect type %q", effect.Type)
		}
		if _, ok := l.groups[effect.GroupID]; !ok {
			l.add(effectPath, "target group %q does not exist", effect.GroupID)
		}
		l.references(effect.DependsOn, effectPath+".dependsOn")
	}
	if q.ValueMap != nil {
		if len(q.ValueMap.DependsOn) == 0 {
			l.add(path+".valueMap", "valueMap has no dependsOn")
		}
		l.references(q.ValueMap.DependsOn, path+".valueMap.dependsOn")
	}
}

func (l *linter) group(cfg *model.LineItemGroupConfig, path string, depth int) {
	switch cfg.AddMode {
	case model.AddModeManual, model.AddModeOverlay, model.AddModeAuto, "":
	default:
		l.add(path, "unknown addMode %q", cfg.AddMode)
	}

	seen := make(map[string]struct{}, len(cfg.Fields)+1)
	if cfg.SectionSelector != nil {
		selPath := path + ".sectionSelector"
		l.unique(seen, cfg.SectionSelector.ID, selPath)
		l.question(cfg.SectionSelector, selPath)
	}
	for i := range cfg.Fields {
		field := &cfg.Fields[i]
		fieldPath := questionPath(path+".fields", i, field.ID)
		l.unique(seen, field.ID, fieldPath)
		if field.Type == model.QuestionTypeLineItemGroup {
			l.add(fieldPath, "row fields cannot be groups; use subGroups")
			continue
		}
		l.question(field, fieldPath)
	}

	if cfg.AddMode == model.AddModeAuto || cfg.AddMode == model.AddModeOverlay {
		anchor, ok := cfg.Anchor()
		switch {
		case cfg.AnchorFieldID == "":
			l.add(path, "%s group requires anchorFieldId", cfg.AddMode)
		case !ok:
			l.add(path, "anchor field %q is not a row field", cfg.AnchorFieldID)
		case !anchor.Type.HasOptions():
			l.add(path, "anchor field %q must be a CHOICE or CHECKBOX question", cfg.AnchorFieldID)
		}
	}

	if len(cfg.SubGroups) > 0 && depth > 0 {
		l.add(path, "sub-groups nest at most one level")
		return
	}
	subSeen := make(map[string]struct{}, len(cfg.SubGroups))
	for i := range cfg.SubGroups {
		sub := &cfg.SubGroups[i]
		subPath := fmt.Sprintf("%s.subGroups[%s]", path, sub.ID)
		l.unique(subSeen, sub.ID, subPath)
		l.group(&sub.LineItemGroupConfig, subPath, depth+1)
	}
}

func (l *linter) references(ids []string, path string) {
	for _, id := range ids {
		if _, ok := l.fields[id]; !ok {
			l.add(path, "unknown field %q", id)
		}
	}
}

func (l *linter) condition(cond *model.Condition, path string) {
	if cond == nil {
		return
	}
	if cond.Op == model.OpExpr || (cond.Op == "" && cond.Expr != "") {
		l.add(path, "shorthand expression was not compiled")
		return
	}
	if _, ok := knownOps[cond.Op]; !ok {
		l.add(path, "unknown operator %q", cond.Op)
	}
	for _, id := range []string{cond.Field, cond.Ref} {
		if id == "" {
			continue
		}
		if _, ok := l.fields[id]; !ok {
			l.add(path, "unknown field %q", id)
		}
	}
	for i := range cond.Conditions {
		l.condition(&cond.Conditions[i], fmt.Sprintf("%s.conditions[%d]", path, i))
	}
}

func questionPath(prefix string, idx int, id string) string {
	if id == "" {
		return fmt.Sprintf("%s[%d]", prefix, idx)
	}
	return prefix + "[" + id + "]"
}
