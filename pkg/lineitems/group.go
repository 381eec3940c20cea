package lineitems

import (
	"sort"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// OptionsFunc returns the base option set of field within a group instance.
// A nil result means the options have not arrived yet.
type OptionsFunc func(field model.QuestionDefinition, instanceKey string) *model.OptionSet

// GroupInput is everything ReconcileGroup reads.
type GroupInput struct {
	GroupID          string
	Config           *model.LineItemGroupConfig
	Values           model.Values
	LineItems        model.LineItems
	Options          OptionsFunc
	Language         string
	FallbackLanguage string
	IDs              IDGenerator
}

// GroupResult reports the reconciled line items of one group.
type GroupResult struct {
	LineItems model.LineItems
	Changed   bool
	// Targets lists the instance keys whose rows changed.
	Targets []string
	// Dropped maps an instance key to the ids of rows removed from it,
	// including every row of a dropped sub-group instance.
	Dropped map[string][]string
}

func (r *GroupResult) drop(key string, ids ...string) {
	if len(ids) == 0 {
		return
	}
	if r.Dropped == nil {
		r.Dropped = make(map[string][]string)
	}
	r.Dropped[key] = append(r.Dropped[key], ids...)
}

// ReconcileGroup reconciles the top-level group when it is in auto mode,
// then every auto sub-group once per parent row. Sub-group instances whose
// parent row no longer exists are dropped. The input line items are never
// mutated.
func ReconcileGroup(in GroupInput) GroupResult {
	out := GroupResult{LineItems: in.LineItems.Clone()}
	if in.Config == nil {
		return out
	}
	if in.Options == nil {
		in.Options = inlineOptions
	}
	if in.IDs == nil {
		in.IDs = NewUUIDs()
	}

	if in.Config.AddMode == model.AddModeAuto {
		res, ok := reconcileTarget(in, in.GroupID, in.Config, model.Chain(in.Values))
		if ok && res.Changed {
			out.LineItems[in.GroupID] = res.Rows
			out.Changed = true
			out.Targets = append(out.Targets, in.GroupID)
			out.drop(in.GroupID, res.Dropped...)
		}
	}

	parents := out.LineItems[in.GroupID]
	live := make(map[string]struct{}, len(parents)*len(in.Config.SubGroups))
	for _, parent := range parents {
		for i := range in.Config.SubGroups {
			sub := &in.Config.SubGroups[i]
			key := model.InstanceKey(in.GroupID, parent.ID, sub.ID)
			live[key] = struct{}{}
			if sub.AddMode != model.AddModeAuto {
				continue
			}
			res, ok := reconcileTarget(in, key, &sub.LineItemGroupConfig, model.Chain(parent.Values, in.Values))
			if ok && res.Changed {
				out.LineItems[key] = res.Rows
				out.Changed = true
				out.Targets = append(out.Targets, key)
				out.drop(key, res.Dropped...)
			}
		}
	}

	var orphans []string
	for key := range out.LineItems {
		parentGroup, _, _, ok := model.ParseInstanceKey(key)
		if !ok || parentGroup != in.GroupID {
			continue
		}
		if _, alive := live[key]; !alive {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)
	for _, key := range orphans {
		for _, row := range out.LineItems[key] {
			out.drop(key, row.ID)
		}
		delete(out.LineItems, key)
		out.Changed = true
		out.Targets = append(out.Targets, key)
	}
	return out
}

// reconcileTarget runs one target. lookup resolves the dependencies and the
// section selector from the target's container. ok is false when the config
// has no anchor field.
func reconcileTarget(in GroupInput, key string, cfg *model.LineItemGroupConfig, lookup model.Lookup) (Result, bool) {
	anchor, ok := cfg.Anchor()
	if !ok {
		return Result{}, false
	}

	var deps []any
	if anchor.OptionFilter != nil {
		deps = make([]any, 0, len(anchor.OptionFilter.DependsOn))
		for _, id := range anchor.OptionFilter.DependsOn {
			deps = append(deps, lookup(id))
		}
	}

	desired := ComputeAutoDesired(AutoInput{
		TargetKey:        key,
		Anchor:           anchor,
		DependencyValues: deps,
		Options:          in.Options(anchor, key),
		Language:         in.Language,
		FallbackLanguage: in.FallbackLanguage,
	})

	reconcileCfg := ReconcileConfig{
		TargetKey:     key,
		AnchorFieldID: anchor.ID,
		IDs:           in.IDs,
	}
	if cfg.SectionSelector != nil {
		reconcileCfg.SectionSelectorID = cfg.SectionSelector.ID
		reconcileCfg.SectionSelectorValue = lookup(cfg.SectionSelector.ID)
	}
	return ReconcileAutoRows(in.LineItems[key], desired, reconcileCfg), true
}

func inlineOptions(field model.QuestionDefinition, _ string) *model.OptionSet {
	return field.Options
}
