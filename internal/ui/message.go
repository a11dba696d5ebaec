package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRepairOrderLoaded MsgKind = iota
	MsgCountsLoaded
	MsgSubmitted
)

type repairOrderResult struct {
	ro  *models.RepairOrder
	err error
}

type countsResult struct {
	req    panel.CountsRequest
	counts models.AppointmentCounts
	err    error
}

type submitResult struct {
	req    models.BookingRequest
	result *models.BookingResult
	err    error
}

// repairOrderLoadedMsg is the constructor for [MsgRepairOrderLoaded]
func repairOrderLoadedMsg(ro *models.RepairOrder, err error) Msg {
	return Msg{kind: MsgRepairOrderLoaded, data: repairOrderResult{ro, err}}
}

// countsLoadedMsg is the constructor for [MsgCountsLoaded]
func countsLoadedMsg(req panel.CountsRequest, counts models.AppointmentCounts, err error) Msg {
	return Msg{kind: MsgCountsLoaded, data: countsResult{req, counts, err}}
}

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(req models.BookingRequest, result *models.BookingResult, err error) Msg {
	return Msg{kind: MsgSubmitted, data: submitResult{req, result, err}}
}
