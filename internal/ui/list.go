package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/beatify/internal/models"
)

var (
	_ list.Item = widgetItem{}
)

// widgetItem wraps [models.Widget] to implement [list.Item].
type widgetItem struct {
	widget *models.Widget
}

func (i widgetItem) FilterValue() string { return i.widget.Username() }
func (i widgetItem) Title() string       { return i.widget.WidgetName() }
func (i widgetItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.widget.Username(), i.widget.Platform())
	if i.widget.WidgetType() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.widget.WidgetType())
	}
	return desc
}
