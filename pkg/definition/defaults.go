package definition

import (
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Defaults returns the decorator that trims ids, upper-cases question
// types, defaults group add modes to manual and fills the default language.
func Defaults() model.Decorator {
	return model.DecoratorFunc(applyDefaults)
}

func applyDefaults(def *model.FormDefinition) error {
	if def.DefaultLanguage == "" && len(def.Languages) > 0 {
		def.DefaultLanguage = def.Languages[0]
	}
	def.DefaultLanguage = strings.ToLower(strings.TrimSpace(def.DefaultLanguage))
	for i := range def.Questions {
		normaliseQuestion(&def.Questions[i])
	}
	return nil
}

func normaliseQuestion(q *model.QuestionDefinition) {
	q.ID = strings.TrimSpace(q.ID)
	q.Type = model.QuestionType(strings.ToUpper(strings.TrimSpace(string(q.Type))))
	if q.Type == "" && q.LineItemConfig != nil {
		q.Type = model.QuestionTypeLineItemGroup
	}
	if q.LineItemConfig != nil {
		normaliseGroup(q.LineItemConfig)
	}
}

func normaliseGroup(cfg *model.LineItemGroupConfig) {
	if cfg.AddMode == "" {
		cfg.AddMode = model.AddModeManual
	}
	cfg.AnchorFieldID = strings.TrimSpace(cfg.AnchorFieldID)
	if cfg.SectionSelector != nil {
		normaliseQuestion(cfg.SectionSelector)
	}
	for i := range cfg.Fields {
		normaliseQuestion(&cfg.Fields[i])
	}
	for i := range cfg.SubGroups {
		cfg.SubGroups[i].ID = strings.TrimSpace(cfg.SubGroups[i].ID)
		normaliseGroup(&cfg.SubGroups[i].LineItemGroupConfig)
	}
}
