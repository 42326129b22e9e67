// Package ui implements an interactive terminal browser for the directory using bubbletea's Elm architecture.
//
// The TUI provides two views:
//  1. [CategoryListView] : Browse categories ordered by likes, like the selected one
//  2. [PageListView] : Browse the pages of a category and open one in the default browser
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every storage call runs inside a [tea.Cmd] so the event loop never blocks on the database.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, l, o, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
