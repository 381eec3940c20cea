package prompt

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/orchestrator"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/validation"
)

const maxValueWidth = 40

// ErrorTable renders validation errors, one per row.
func ErrorTable(errs []validation.ValidationError) string {
	tw := table.NewWriter()
	tw.SetTitle("VALIDATION SUMMARY")
	tw.AppendHeader(table.Row{"Path", "Kind", "Message"})
	for _, err := range errs {
		tw.AppendRow(table.Row{err.Path, string(err.Kind), err.Message})
	}
	if len(errs) == 0 {
		tw.AppendRow(table.Row{"", "", "no errors"})
	}
	return render(tw)
}

// ValueTable renders the visible field values of a view.
func ValueTable(view orchestrator.View) string {
	tw := table.NewWriter()
	tw.SetTitle("VALUES")
	tw.AppendHeader(table.Row{"Path", "Label", "Value"})
	for _, field := range view.Fields {
		if field.Hidden || model.IsEmpty(field.Value) {
			continue
		}
		tw.AppendRow(table.Row{field.Path, field.Label, display(field.Value)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1},
		{Number: 2},
		{Number: 3, WidthMax: maxValueWidth},
	})
	return render(tw)
}

func render(tw table.Writer) string {
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func display(value any) string {
	switch v := value.(type) {
	case []any, []string:
		return fmt.Sprint(model.ToStrings(v))
	default:
		return model.ValueString(v)
	}
}
