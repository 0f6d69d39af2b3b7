// Package ui implements the terminal surfaces of the application: a styled
// console notifier for sync events and an interactive smart playlist
// browser using bubbletea's Elm architecture.
//
// The browser provides two views:
//  1. [PlaylistListView] : browse smart playlists with criteria and status
//  2. [ConfirmView] : confirm a full sync of the selected playlist
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
