// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for repository synchronization:
//  1. [RepoListView] : Browse and select local repositories
//  2. [ConfirmView] : Confirm the pull operation
//  3. [SyncView] : Monitor real-time progress updates
//  4. [ResultView] : Display sync counts and per-item failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the SyncEngine, providing non-blocking status reporting during pulls.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
