// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for exploring playlist moods:
//  1. [PlaylistListView] : Browse and filter the caller's playlists
//  2. [AnalyzingView] : Follow analysis progress
//  3. [ProfileView] : Read the resulting mood profile
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the analysis engine, which never blocks on a slow reader.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
