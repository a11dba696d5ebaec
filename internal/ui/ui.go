package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tekx/internal/models"
	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/shared"
)

// row is one focusable line on the services screen.
type row struct {
	list panel.ServiceList
	id   string
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	ctrl    *panel.Controller
	backend panel.Backend
	pageURL string

	width   int
	height  int
	loading bool
	editing bool
	cursor  int
	notice  string
	err     error

	notes     textarea.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	notesKeys notesKeys
}

// NewModel creates a panel for pageURL. The controller is driven only from Update; backend calls
// run as commands.
func NewModel(ctx context.Context, ctrl *panel.Controller, backend panel.Backend, pageURL string) *Model {
	notes := textarea.New()
	notes.Placeholder = "Instructions for the service advisor"
	notes.ShowLineNumbers = false
	notes.CharLimit = 1000
	notes.SetHeight(3)

	return &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		backend:   backend,
		pageURL:   pageURL,
		notes:     notes,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      newKeyMap(),
		notesKeys: newNotesKeys(),
	}
}

// Err returns the error that stopped the panel, if any.
func (m *Model) Err() error { return m.err }

// Init starts the session and loads the repair order.
func (m *Model) Init() tea.Cmd {
	roID, err := m.ctrl.BeginSession(m.pageURL)
	if err != nil {
		m.err = err
		return tea.Quit
	}
	m.notes.SetValue(m.ctrl.State().CustomerNotes)
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.fetchRepairOrder(roID))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.notes.SetWidth(max(msg.Width-6, 20))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if m.editing {
			return m.handleNotesKeys(msg)
		}
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.discard) {
			m.ctrl.Close()
			return m, tea.Quit
		}
		if m.loading || m.ctrl.State().Submitting {
			return m, nil
		}
		switch m.ctrl.State().Screen {
		case panel.ScreenSchedule:
			return m.handleScheduleKeys(msg)
		case panel.ScreenServices:
			return m.handleServicesKeys(msg)
		case panel.ScreenConfirmation:
			return m.handleConfirmationKeys(msg)
		}
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRepairOrderLoaded:
		res := msg.data.(repairOrderResult)
		m.loading = false
		if err := m.ctrl.ResolveRepairOrder(res.ro, res.err); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if res.err != nil {
			m.notice = "Showing the last saved copy of this repair order"
		}
		return m, m.fetchCounts()

	case MsgCountsLoaded:
		res := msg.data.(countsResult)
		m.ctrl.ResolveCounts(res.req, res.counts, res.err)
		return m, nil

	case MsgSubmitted:
		res := msg.data.(submitResult)
		m.ctrl.ResolveSubmit(res.req, res.result, res.err)
		return m, nil
	}
	return m, nil
}

func (m *Model) dispatch(cmd panel.Command) error {
	err := m.ctrl.Dispatch(m.ctx, cmd)
	m.notice = ""
	if err != nil && !errors.Is(err, panel.ErrIllegalTransition) {
		m.notice = err.Error()
	}
	return err
}

func (m *Model) handleScheduleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.ctrl.State()
	switch {
	case key.Matches(msg, m.keys.left), key.Matches(msg, m.keys.right):
		delta := 1
		if key.Matches(msg, m.keys.left) {
			delta = -1
		}
		if date, ok := m.stepDate(delta); ok {
			m.dispatch(panel.SelectDate{Date: date})
		}
	case key.Matches(msg, m.keys.monthsDown):
		m.dispatch(panel.ChangeInterval{Months: panel.StepMonths(s.MonthInterval, -1)})
	case key.Matches(msg, m.keys.monthsUp):
		m.dispatch(panel.ChangeInterval{Months: panel.StepMonths(s.MonthInterval, 1)})
	case key.Matches(msg, m.keys.milesDown):
		m.dispatch(panel.ChangeInterval{Miles: panel.StepMiles(s.MileInterval, -1)})
	case key.Matches(msg, m.keys.milesUp):
		m.dispatch(panel.ChangeInterval{Miles: panel.StepMiles(s.MileInterval, 1)})
	case key.Matches(msg, m.keys.enter):
		if m.dispatch(panel.Continue{}) == nil {
			m.cursor = 0
		}
		return m, nil
	}
	return m, m.fetchCounts()
}

// stepDate returns the weekday delta positions from the selected one.
func (m *Model) stepDate(delta int) (time.Time, bool) {
	vm := m.ctrl.View()
	idx := 0
	for i, d := range vm.Dates {
		if d.Selected {
			idx = i
		}
	}
	idx += delta
	if idx < 0 || idx >= len(vm.Dates) {
		return time.Time{}, false
	}
	return vm.Dates[idx].Date, true
}

func (m *Model) rows() []row {
	vm := m.ctrl.View()
	rows := make([]row, 0, len(vm.Performed)+len(vm.Declined))
	for _, opt := range vm.Performed {
		rows = append(rows, row{list: panel.RepeatList, id: opt.ID})
	}
	for _, opt := range vm.Declined {
		rows = append(rows, row{list: panel.DeclinedList, id: opt.ID})
	}
	return rows
}

func (m *Model) handleServicesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch {
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(rows)-1, 0))
	case key.Matches(msg, m.keys.toggle):
		if m.cursor < len(rows) {
			r := rows[m.cursor]
			m.dispatch(panel.ToggleService{List: r.list, ID: r.id})
		}
	case key.Matches(msg, m.keys.kind):
		next := models.AppointmentWait
		if m.ctrl.State().Appointment.Type == models.AppointmentWait {
			next = models.AppointmentDropoff
		}
		m.dispatch(panel.SetAppointmentType{Type: next})
	case key.Matches(msg, m.keys.notes):
		m.editing = true
		return m, m.notes.Focus()
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.back):
		m.dispatch(panel.Back{})
		return m, m.fetchCounts()
	}
	return m, nil
}

func (m *Model) handleNotesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.notesKeys.done) {
		m.editing = false
		m.notes.Blur()
		m.dispatch(panel.SetNotes{Text: m.notes.Value()})
		return m, nil
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		m.ctrl.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) fetchRepairOrder(roID string) tea.Cmd {
	return func() tea.Msg {
		if m.backend == nil {
			return repairOrderLoadedMsg(nil, panel.ErrNoRepairOrder)
		}
		ro, err := m.backend.RepairOrder(m.ctx, roID)
		return repairOrderLoadedMsg(ro, err)
	}
}

// fetchCounts issues a counts request when the window changed.
func (m *Model) fetchCounts() tea.Cmd {
	req, ok := m.ctrl.RequestCounts()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		if m.backend == nil {
			return countsLoadedMsg(req, nil, shared.ErrServiceUnavailable)
		}
		counts, err := m.backend.AppointmentCounts(m.ctx, req)
		return countsLoadedMsg(req, counts, err)
	}
}

func (m *Model) submit() tea.Cmd {
	req, err := m.ctrl.BeginSubmit()
	if err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		if m.backend == nil {
			return submittedMsg(req, nil, shared.ErrServiceUnavailable)
		}
		result, err := m.backend.CreateAppointment(m.ctx, req)
		return submittedMsg(req, result, err)
	})
}

// View renders the UI based on the current screen.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	if m.loading {
		return fmt.Sprintf("%s Loading repair order...\n", m.spinner.View())
	}

	vm := m.ctrl.View()
	var body string
	switch vm.Screen {
	case panel.ScreenSchedule:
		body = m.renderSchedule(vm)
	case panel.ScreenServices:
		body = m.renderServices(vm)
	case panel.ScreenConfirmation:
		body = m.renderConfirmation(vm)
	}

	parts := []string{m.renderHeader(vm), body}
	if m.notice != "" {
		parts = append(parts, styles.warn.Render(m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m *Model) renderHeader(vm panel.ViewModel) string {
	title := styles.title.Render(fmt.Sprintf("Advance Appointment · step %d of 3", int(vm.Screen)))
	ro := vm.RepairOrder
	if ro == nil {
		return title
	}
	info := fmt.Sprintf("RO #%s · %s · %s", ro.Number, ro.Customer.Name(), ro.Vehicle.Description())
	return lipgloss.JoinVertical(lipgloss.Left, title, styles.help.Render(info))
}

func (m *Model) renderSchedule(vm panel.ViewModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interval: every %d months / %s miles\n", vm.MonthInterval, shared.FormatNumber(vm.MileInterval))
	fmt.Fprintf(&b, "Recommended: %s", vm.RecommendedDate.In(m.ctrl.Location()).Format("Mon Jan 2, 2006"))
	if vm.RecommendedMileage != nil {
		fmt.Fprintf(&b, " at %s", shared.FormatMiles(*vm.RecommendedMileage))
	}
	b.WriteString("\n\n")

	cells := make([]string, 0, len(vm.Dates))
	for _, d := range vm.Dates {
		count := fmt.Sprintf("%d booked", d.Count)
		if vm.CountsLoading {
			count = m.spinner.View()
		}
		cell := fmt.Sprintf("%s\n%s\n%s", d.Date.Format("Mon"), d.Date.Format("Jan 2"), count)
		style := styles.box
		if d.Selected {
			style = style.BorderForeground(lipgloss.Color("#7D56F4")).Bold(true)
		}
		cells = append(cells, style.Render(cell))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	b.WriteString("\n\n")

	helpKeys := []key.Binding{m.keys.left, m.keys.right, m.keys.monthsDown, m.keys.monthsUp, m.keys.milesDown, m.keys.milesUp, m.keys.enter, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderServices(vm panel.ViewModel) string {
	var b strings.Builder
	i := 0
	section := func(title string, opts []panel.ServiceOption) {
		b.WriteString(styles.ok.Render(title) + "\n")
		if len(opts) == 0 {
			b.WriteString(styles.help.Render("  none") + "\n")
		}
		for _, opt := range opts {
			mark := "[ ]"
			if opt.Selected {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %s", mark, opt.Name)
			if i == m.cursor && !m.editing {
				line = styles.selected.Render(line)
			}
			b.WriteString("  " + line + "\n")
			i++
		}
		b.WriteString("\n")
	}
	section("Repeat services", vm.Performed)
	section("Previously declined", vm.Declined)

	fmt.Fprintf(&b, "Appointment type: %s\n\n", vm.Type.Label())
	b.WriteString("Customer instructions\n" + m.notes.View() + "\n\n")
	b.WriteString(styles.box.Render(vm.Preview) + "\n")

	switch {
	case vm.Submitting:
		b.WriteString(m.spinner.View() + " Booking appointment...\n")
	case vm.SubmitError != "":
		b.WriteString(styles.err.Render(vm.SubmitError) + "\n")
	}

	if m.editing {
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.notesKeys.done}))
		return b.String()
	}
	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.toggle, m.keys.kind, m.keys.notes, m.keys.submit, m.keys.back, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirmation(vm panel.ViewModel) string {
	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Appointment booked") + "\n\n")
	fmt.Fprintf(&b, "%s\n", vm.Title)
	if vm.SelectedDate != nil {
		fmt.Fprintf(&b, "%s\n", vm.SelectedDate.In(m.ctrl.Location()).Format("Monday, January 2, 2006"))
	}
	if vm.BookedAppointmentID != "" {
		fmt.Fprintf(&b, "Appointment ID: %s\n", vm.BookedAppointmentID)
	}
	done := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done"))
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{done, m.keys.quit}))
	return b.String()
}
