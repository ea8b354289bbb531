// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for widget administration:
//  1. [WidgetListView] : Browse issued widgets across all users
//  2. [ConfigEditView] : Edit a widget's JSON configuration in place
//  3. [ResultView] : Display the save outcome
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Widget rows are read and written through the repository layer, so edits made here are visible to embeds on their next poll.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
