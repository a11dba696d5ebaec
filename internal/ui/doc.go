// Package ui implements the advance appointment panel as a terminal interface using bubbletea's
// Elm architecture.
//
// The panel walks through three screens backed by a [panel.Controller]:
//  1. Schedule : pick the month and mile interval and a weekday near the recommended date
//  2. Services : choose repeat and previously declined services, appointment type and notes
//  3. Confirmation : the booked appointment id
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern. Network calls
// run as [tea.Cmd]s against the [panel.Backend] and come back through the [Msg] union; the
// controller itself is only touched from Update.
//
// Keyboard navigation uses vim-style bindings (h/l, j/k, space, enter, esc, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
