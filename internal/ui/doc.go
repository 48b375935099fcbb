// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for mirroring a list:
//  1. [StartView] : Confirm that the destination list may be modified
//  2. [RunView] : Monitor progress and answer per-operation confirmations
//  3. [ResultView] : Display the run summary or failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync Engine, and pending
// operations arrive through [Confirmer], which blocks the engine goroutine
// until the operator answers.
//
// Keyboard input uses single-letter bindings (y/s/f/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
