package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeText          QuestionType = "TEXT"
	QuestionTypeParagraph     QuestionType = "PARAGRAPH"
	QuestionTypeNumber        QuestionType = "NUMBER"
	QuestionTypeDate          QuestionType = "DATE"
	QuestionTypeChoice        QuestionType = "CHOICE"
	QuestionTypeCheckbox      QuestionType = "CHECKBOX"
	QuestionTypeFileUpload    QuestionType = "FILE_UPLOAD"
	QuestionTypeLineItemGroup QuestionType = "LINE_ITEM_GROUP"
)

// HasOptions reports whether questions of this type pick from an OptionSet.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeChoice || t == QuestionTypeCheckbox
}

// AddMode controls how rows enter a line-item group.
type AddMode string

const (
	AddModeManual  AddMode = "manual"
	AddModeOverlay AddMode = "overlay"
	AddModeAuto    AddMode = "auto"
)

// LocalizedText maps a language code (lower case) to a display string.
type LocalizedText map[string]string

// FormDefinition is the immutable description of one form.
type FormDefinition struct {
	ID              string               `json:"id" yaml:"id"`
	Title           LocalizedText        `json:"title,omitempty" yaml:"title,omitempty"`
	Languages       []string             `json:"languages,omitempty" yaml:"languages,omitempty"`
	DefaultLanguage string               `json:"defaultLanguage,omitempty" yaml:"defaultLanguage,omitempty"`
	Questions       []QuestionDefinition `json:"questions" yaml:"questions"`
}

// QuestionDefinition describes a top-level question or a field inside a
// line-item row. Row fields never carry a LineItemConfig.
type QuestionDefinition struct {
	ID               string               `json:"id" yaml:"id"`
	Type             QuestionType         `json:"type" yaml:"type"`
	Label            LocalizedText        `json:"label,omitempty" yaml:"label,omitempty"`
	Required         bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly         bool                 `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Visibility       *Visibility          `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Options          *OptionSet           `json:"options,omitempty" yaml:"options,omitempty"`
	OptionSource     *SourceDescriptor    `json:"optionSource,omitempty" yaml:"optionSource,omitempty"`
	OptionFilter     *OptionFilter        `json:"optionFilter,omitempty" yaml:"optionFilter,omitempty"`
	ValidationRules  []ValidationRule     `json:"validationRules,omitempty" yaml:"validationRules,omitempty"`
	SelectionEffects []SelectionEffect    `json:"selectionEffects,omitempty" yaml:"selectionEffects,omitempty"`
	ValueMap         *ValueMap            `json:"valueMap,omitempty" yaml:"valueMap,omitempty"`
	LineItemConfig   *LineItemGroupConfig `json:"lineItemConfig,omitempty" yaml:"lineItemConfig,omitempty"`
}

// IsGroup reports whether the question is a line-item group with a config.
func (q QuestionDefinition) IsGroup() bool {
	return q.Type == QuestionTypeLineItemGroup && q.LineItemConfig != nil
}

// Visibility hides a field when HideWhen matches or when ShowWhen is present
// and does not match.
type Visibility struct {
	ShowWhen *Condition `json:"showWhen,omitempty" yaml:"showWhen,omitempty"`
	HideWhen *Condition `json:"hideWhen,omitempty" yaml:"hideWhen,omitempty"`
}

// LineItemGroupConfig describes the row shape of a repeated group.
type LineItemGroupConfig struct {
	Fields          []QuestionDefinition `json:"fields" yaml:"fields"`
	SectionSelector *QuestionDefinition  `json:"sectionSelector,omitempty" yaml:"sectionSelector,omitempty"`
	AddMode         AddMode              `json:"addMode,omitempty" yaml:"addMode,omitempty"`
	AnchorFieldID   string               `json:"anchorFieldId,omitempty" yaml:"anchorFieldId,omitempty"`
	SubGroups       []SubGroupConfig     `json:"subGroups,omitempty" yaml:"subGroups,omitempty"`
}

// SubGroupConfig is a group nested one level below a parent group and
// instantiated once per parent row.
type SubGroupConfig struct {
	ID                  string        `json:"id" yaml:"id"`
	Label               LocalizedText `json:"label,omitempty" yaml:"label,omitempty"`
	LineItemGroupConfig `json:",inline" yaml:",inline"`
}

// Field returns the row field with the supplied id.
func (c *LineItemGroupConfig) Field(id string) (QuestionDefinition, bool) {
	if c == nil {
		return QuestionDefinition{}, false
	}
	for _, field := range c.Fields {
		if field.ID == id {
			return field, true
		}
	}
	if c.SectionSelector != nil && c.SectionSelector.ID == id {
		return *c.SectionSelector, true
	}
	return QuestionDefinition{}, false
}

// Anchor returns the anchor field definition when the config declares one.
func (c *LineItemGroupConfig) Anchor() (QuestionDefinition, bool) {
	if c == nil || c.AnchorFieldID == "" {
		return QuestionDefinition{}, false
	}
	return c.Field(c.AnchorFieldID)
}

// FieldIDs returns the ids of every row field, including the section selector.
func (c *LineItemGroupConfig) FieldIDs() map[string]struct{} {
	if c == nil {
		return nil
	}
	ids := make(map[string]struct{}, len(c.Fields)+1)
	for _, field := range c.Fields {
		ids[field.ID] = struct{}{}
	}
	if c.SectionSelector != nil && c.SectionSelector.ID != "" {
		ids[c.SectionSelector.ID] = struct{}{}
	}
	return ids
}

// OptionSet holds the stable option values of a choice/checkbox field plus
// their localized labels. Labels[lang] is aligned index-by-index with Values.
type OptionSet struct {
	Values   []string                 `json:"values" yaml:"values"`
	Labels   map[string][]string      `json:"labels,omitempty" yaml:"labels,omitempty"`
	Tooltips map[string]LocalizedText `json:"tooltips,omitempty" yaml:"tooltips,omitempty"`
}

// Empty reports whether the set has no values.
func (s *OptionSet) Empty() bool {
	return s == nil || len(s.Values) == 0
}

// SourceKind identifies how an external option set is fetched.
type SourceKind string

const (
	SourceKindFile    SourceKind = "file"
	SourceKindFS      SourceKind = "fs"
	SourceKindURL     SourceKind = "url"
	SourceKindOpenAPI SourceKind = "openapi"
)

// SourceDescriptor points at an option set that lives outside the definition.
type SourceDescriptor struct {
	Kind     SourceKind `json:"kind" yaml:"kind"`
	Location string     `json:"location" yaml:"location"`
	// Schema and Property select an enum inside an OpenAPI document.
	Schema   string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
}

// OptionFilter narrows the options of a field from the values of the fields
// listed in DependsOn. OptionMap keys are dependency keys (see DependencyKeys)
// or the wildcard "*"; values are the option values allowed under that key.
// Options that appear under no key are allowed unless Exclusive is set.
type OptionFilter struct {
	DependsOn []string            `json:"dependsOn" yaml:"dependsOn"`
	OptionMap map[string][]string `json:"optionMap,omitempty" yaml:"optionMap,omitempty"`
	Exclusive bool                `json:"exclusive,omitempty" yaml:"exclusive,omitempty"`
}

// RulePhase gates when a validation rule runs.
type RulePhase string

const (
	PhaseChange RulePhase = "change"
	PhaseSubmit RulePhase = "submit"
)

// ValidationRule produces an error on Then.FieldID whenever When matches.
type ValidationRule struct {
	ID    string     `json:"id,omitempty" yaml:"id,omitempty"`
	When  *Condition `json:"when" yaml:"when"`
	Then  RuleThen   `json:"then" yaml:"then"`
	Phase RulePhase  `json:"phase,omitempty" yaml:"phase,omitempty"`
}

// RuleThen names the field that receives the error and its message.
type RuleThen struct {
	FieldID string        `json:"fieldId,omitempty" yaml:"fieldId,omitempty"`
	Message LocalizedText `json:"message" yaml:"message"`
}

// EffectType enumerates the selection effect kinds.
type EffectType string

const (
	EffectAddLineItems   EffectType = "addLineItems"
	EffectClearLineItems EffectType = "clearLineItems"
)

// SelectionEffect is a cascading consequence of a field value change.
type SelectionEffect struct {
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Type    EffectType `json:"type" yaml:"type"`
	GroupID string     `json:"groupId" yaml:"groupId"`
	// Preset values written into the created row. The string "$value" is
	// replaced with the triggering value and "$row.<fieldId>" with a value of
	// the triggering row.
	Preset Values `json:"preset,omitempty" yaml:"preset,omitempty"`
	// TriggerValues restricts the effect to specific values; empty means any
	// non-empty value.
	TriggerValues []string `json:"triggerValues,omitempty" yaml:"triggerValues,omitempty"`
	// DependsOn lists row fields that must be filled before the effect fires.
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// ValueMap derives a field value from other fields. Without an OptionMap the
// first dependency value is copied through unchanged.
type ValueMap struct {
	DependsOn []string            `json:"dependsOn" yaml:"dependsOn"`
	OptionMap map[string][]string `json:"optionMap,omitempty" yaml:"optionMap,omitempty"`
	Default   any                 `json:"default,omitempty" yaml:"default,omitempty"`
	Multiple  bool                `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Separator string              `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// Question returns the top-level question with the supplied id.
func (d *FormDefinition) Question(id string) (QuestionDefinition, bool) {
	if d == nil {
		return QuestionDefinition{}, false
	}
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionDefinition{}, false
}

// Group returns the config of the top-level group with the supplied id.
func (d *FormDefinition) Group(id string) (*LineItemGroupConfig, bool) {
	q, ok := d.Question(id)
	if !ok || !q.IsGroup() {
		return nil, false
	}
	return q.LineItemConfig, true
}

// SubGroup returns the config of a sub-group declared under parentID.
func (d *FormDefinition) SubGroup(parentID, subID string) (*LineItemGroupConfig, bool) {
	parent, ok := d.Group(parentID)
	if !ok {
		return nil, false
	}
	for i := range parent.SubGroups {
		if parent.SubGroups[i].ID == subID {
			return &parent.SubGroups[i].LineItemGroupConfig, true
		}
	}
	return nil, false
}

// Language returns the default language, falling back to the first declared
// language and then "en".
func (d *FormDefinition) Language() string {
	if d == nil {
		return "en"
	}
	if d.DefaultLanguage != "" {
		return d.DefaultLanguage
	}
	if len(d.Languages) > 0 {
		return d.Languages[0]
	}
	return "en"
}
