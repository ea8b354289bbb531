package ui

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/repositories"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WidgetListView ViewState = iota
	ConfigEditView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	widgets    *repositories.WidgetRepository
	width      int
	height     int
	loaded     bool
	widgetList list.Model
	selected   *models.Widget
	editor     textarea.Model
	saveErr    error
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model backed by the widget repository.
func NewModel(ctx context.Context, widgets *repositories.WidgetRepository) *Model {
	return &Model{
		ctx:     ctx,
		view:    WidgetListView,
		widgets: widgets,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading widgets from the database.
func (m *Model) Init() tea.Cmd {
	return m.fetchWidgets()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.widgetList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case WidgetListView:
			return m.handleWidgetListKeys(msg)
		case ConfigEditView:
			return m.handleConfigEditKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgWidgetsFetched:
			data := msg.data.(struct {
				widgets []*models.Widget
				err     error
			})
			if data.err != nil {
				m.err = data.err
				return m, tea.Quit
			}
			items := make([]list.Item, len(data.widgets))
			for i, w := range data.widgets {
				items[i] = widgetItem{widget: w}
			}
			m.widgetList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.widgetList.Title = "Widgets"
			m.widgetList.SetSize(m.width-4, m.height-8)
			m.loaded = true
			m.view = WidgetListView
			return m, nil

		case MsgConfigSaved:
			m.saveErr, _ = msg.data.(error)
			m.view = ResultView
			return m, nil
		}
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case WidgetListView:
		return m.renderWidgetList()
	case ConfigEditView:
		return m.renderConfigEdit()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleWidgetListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchWidgets()
	case "enter":
		selected := m.widgetList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(widgetItem); ok {
				m.openEditor(item.widget)
				return m, textarea.Blink
			}
		}
	}

	var cmd tea.Cmd
	m.widgetList, cmd = m.widgetList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfigEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = WidgetListView
		return m, nil
	case "ctrl+s":
		return m, m.saveConfig()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r", "esc", "enter":
		m.saveErr = nil
		m.selected = nil
		return m, m.fetchWidgets()
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case WidgetListView:
		if m.loaded {
			m.widgetList, cmd = m.widgetList.Update(msg)
		}
	case ConfigEditView:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m *Model) openEditor(widget *models.Widget) {
	m.selected = widget

	text := widget.ConfigData()
	if config, err := widget.Config(); err == nil {
		if pretty, err := json.MarshalIndent(config, "", "  "); err == nil {
			text = string(pretty)
		}
	}

	editor := textarea.New()
	editor.SetValue(text)
	editor.SetWidth(max(m.width-4, 40))
	editor.SetHeight(max(m.height-10, 8))
	editor.Focus()
	m.editor = editor
	m.view = ConfigEditView
}

func (m *Model) fetchWidgets() tea.Cmd {
	return func() tea.Msg {
		widgets, err := m.widgets.List(nil)
		return widgetsFetchedMsg(widgets, err)
	}
}

func (m *Model) saveConfig() tea.Cmd {
	value := m.editor.Value()
	token := m.selected.WidgetToken()

	return func() tea.Msg {
		var config map[string]any
		if err := json.Unmarshal([]byte(value), &config); err != nil {
			return configSavedMsg(fmt.Errorf("config must be a JSON object: %w", err))
		}

		data, err := json.Marshal(config)
		if err != nil {
			return configSavedMsg(err)
		}

		return configSavedMsg(m.widgets.UpdateConfig(token, string(data)))
	}
}

func (m *Model) renderWidgetList() string {
	if !m.loaded {
		return styles.help.Render("Loading widgets...")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.widgetList.View(), helpView)
}

func (m *Model) renderConfigEdit() string {
	title := styles.title.Render(fmt.Sprintf("Editing config for '%s'", m.selected.WidgetName()))
	owner := styles.help.Render(fmt.Sprintf("%s • %s", m.selected.Username(), m.selected.Platform()))

	helpKeys := []key.Binding{m.keys.save, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, owner, m.editor.View(), helpView)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.saveErr != nil {
		body := styles.err.Render(fmt.Sprintf("Save failed: %v", m.saveErr))
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	title := styles.ok.Render("✓ Config saved")
	info := fmt.Sprintf("\nWidget: %s\nOwner: %s\n\nEmbeds pick up the new config on their next poll.",
		m.selected.WidgetName(), m.selected.Username())

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
