// Package tui is the terminal front end. It renders the session controller
// snapshot and turns key presses into controller intents.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/render"
	"ai-life-planner/internal/session"
	"ai-life-planner/internal/todo"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Layout constants
const (
	DefaultWidth       = 80
	DefaultHeight      = 24
	HeaderFooterHeight = 6
	MinViewportHeight  = 8
)

var fieldLabels = map[lifeplan.Field]string{
	lifeplan.FieldName:              "What's your name?",
	lifeplan.FieldPrimaryFocus:      "Primary Focus Area",
	lifeplan.FieldShortTermGoal:     "Short-term Goal (1-3 months)",
	lifeplan.FieldLongTermGoal:      "Long-term Goal (1-3 years)",
	lifeplan.FieldDailyAvailability: "Daily Availability",
	lifeplan.FieldBiggestObstacle:   "What's your biggest obstacle right now?",
}

var fieldPlaceholders = map[lifeplan.Field]string{
	lifeplan.FieldName:              "Alex",
	lifeplan.FieldShortTermGoal:     "e.g., Run a 5k, learn React basics",
	lifeplan.FieldLongTermGoal:      "e.g., Run a marathon, become a Senior Dev",
	lifeplan.FieldDailyAvailability: "e.g., 2 hours in the evening, 30 mins mornings",
	lifeplan.FieldBiggestObstacle:   "e.g., Lack of motivation after work, easily distracted",
}

const stillGenerating = "Still generating your plan. Hang tight."

// Model is the bubbletea model of the planner.
type Model struct {
	ctrl   *session.Controller
	feed   *Feed
	todos  *todo.List
	logger *zap.Logger

	snap   session.Snapshot
	width  int
	notice string

	// Form
	inputs      []textinput.Model // parallel to lifeplan.Fields; the focus area slot is unused
	focused     int
	focusChoice int // index into lifeplan.FocusAreas, -1 when unset

	// Landing todo widget
	todoInput  textinput.Model
	todoCursor int
	addingTodo bool

	spinner  spinner.Model
	viewport viewport.Model
}

// New builds the model. The controller must have been created with
// feed.Listen as a listener so asynchronous results reach the model.
func New(ctrl *session.Controller, feed *Feed, todos *todo.List, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	inputs := make([]textinput.Model, len(lifeplan.Fields))
	for i, f := range lifeplan.Fields {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[f]
		ti.CharLimit = 300
		ti.Width = DefaultWidth - 8
		inputs[i] = ti
	}

	ti := textinput.New()
	ti.Placeholder = "Add a new goal or task..."
	ti.CharLimit = 200
	ti.Width = DefaultWidth - 8

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleTagline

	return Model{
		ctrl:        ctrl,
		feed:        feed,
		todos:       todos,
		logger:      logger,
		snap:        ctrl.Snapshot(),
		width:       DefaultWidth,
		inputs:      inputs,
		focusChoice: -1,
		todoInput:   ti,
		spinner:     s,
		viewport:    viewport.New(DefaultWidth-4, DefaultHeight-HeaderFooterHeight),
	}
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.feed.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - HeaderFooterHeight
		if m.viewport.Height < MinViewportHeight {
			m.viewport.Height = MinViewportHeight
		}
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 8
		}
		m.renderPlan()
		return m, nil

	case MsgStateChanged:
		cmd := m.sync()
		return m, tea.Batch(m.feed.wait(), cmd)

	case spinner.TickMsg:
		if m.snap.State != lifeplan.StateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		switch m.snap.State {
		case lifeplan.StateLanding:
			return m.updateLanding(msg)
		case lifeplan.StateCollecting:
			return m.updateForm(msg)
		case lifeplan.StateGenerating:
			return m.updateGenerating(msg)
		case lifeplan.StateShowing:
			return m.updateShowing(msg)
		case lifeplan.StateFailed:
			return m.updateFailed(msg)
		}
	}
	return m, nil
}

// sync re-reads the controller and prepares the screen it moved to.
func (m *Model) sync() tea.Cmd {
	prev := m.snap
	m.snap = m.ctrl.Snapshot()

	if prev.State == m.snap.State && prev.Session == m.snap.Session {
		return nil
	}
	if m.snap.State != lifeplan.StateGenerating {
		m.notice = ""
	}

	switch m.snap.State {
	case lifeplan.StateCollecting:
		return m.loadDraft(m.snap.Input)
	case lifeplan.StateGenerating:
		return m.spinner.Tick
	case lifeplan.StateShowing:
		m.renderPlan()
		m.viewport.GotoTop()
	}
	return nil
}

// === Landing ===

func (m Model) updateLanding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.addingTodo {
		switch msg.Type {
		case tea.KeyEnter:
			if _, ok := m.todos.Add(m.todoInput.Value()); ok {
				m.todoCursor = len(m.todos.Tasks()) - 1
			}
			m.closeTodoInput()
			return m, nil
		case tea.KeyEsc:
			m.closeTodoInput()
			return m, nil
		}
		var cmd tea.Cmd
		m.todoInput, cmd = m.todoInput.Update(msg)
		return m, cmd
	}

	tasks := m.todos.Tasks()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		m.intent(m.ctrl.Start())
		return m, m.sync()
	case "a":
		m.addingTodo = true
		return m, m.todoInput.Focus()
	case "up", "k":
		if m.todoCursor > 0 {
			m.todoCursor--
		}
	case "down", "j":
		if m.todoCursor < len(tasks)-1 {
			m.todoCursor++
		}
	case " ":
		if m.todoCursor < len(tasks) {
			m.todos.Toggle(tasks[m.todoCursor].ID)
		}
	case "x":
		if m.todoCursor < len(tasks) {
			m.todos.Delete(tasks[m.todoCursor].ID)
			if m.todoCursor >= len(tasks)-1 && m.todoCursor > 0 {
				m.todoCursor--
			}
		}
	}
	return m, nil
}

func (m *Model) closeTodoInput() {
	m.addingTodo = false
	m.todoInput.Reset()
	m.todoInput.Blur()
}

// === Form ===

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(lifeplan.Fields)

	switch msg.String() {
	case "esc":
		m.intent(m.ctrl.Cancel())
		return m, m.sync()
	case "tab", "down":
		return m, m.focusField((m.focused + 1) % n)
	case "shift+tab", "up":
		return m, m.focusField((m.focused - 1 + n) % n)
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focused == n-1 {
			return m.submit()
		}
		return m, m.focusField(m.focused + 1)
	}

	field := lifeplan.Fields[m.focused]
	if field == lifeplan.FieldPrimaryFocus {
		switch msg.String() {
		case "left", "h":
			m.cycleFocusArea(-1)
		case "right", "l", " ":
			m.cycleFocusArea(1)
		}
		return m, nil
	}

	before := m.inputs[m.focused].Value()
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	if after := m.inputs[m.focused].Value(); after != before {
		m.setField(field, after)
	}
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	var focusCmd tea.Cmd

	err := m.ctrl.Submit(m.draft())
	var fieldErrs lifeplan.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		for i, f := range lifeplan.Fields {
			if _, bad := fieldErrs[f]; bad {
				focusCmd = m.focusField(i)
				break
			}
		}
	case err != nil:
		m.intent(err)
	}

	return *m, tea.Batch(m.sync(), focusCmd)
}

// draft collects the form values into a UserInput.
func (m *Model) draft() lifeplan.UserInput {
	var in lifeplan.UserInput
	for i, f := range lifeplan.Fields {
		if f == lifeplan.FieldPrimaryFocus {
			if m.focusChoice >= 0 {
				in = in.With(f, string(lifeplan.FocusAreas[m.focusChoice]))
			}
			continue
		}
		in = in.With(f, m.inputs[i].Value())
	}
	return in
}

func (m *Model) loadDraft(in lifeplan.UserInput) tea.Cmd {
	m.focusChoice = -1
	for i, f := range lifeplan.Fields {
		if f == lifeplan.FieldPrimaryFocus {
			for j, area := range lifeplan.FocusAreas {
				if area == in.PrimaryFocus {
					m.focusChoice = j
				}
			}
			continue
		}
		m.inputs[i].SetValue(in.Get(f))
	}
	return m.focusField(0)
}

func (m *Model) focusField(i int) tea.Cmd {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focused = i
	if lifeplan.Fields[i] == lifeplan.FieldPrimaryFocus {
		return nil
	}
	return m.inputs[i].Focus()
}

func (m *Model) cycleFocusArea(delta int) {
	n := len(lifeplan.FocusAreas)
	switch {
	case m.focusChoice < 0 && delta > 0:
		m.focusChoice = 0
	case m.focusChoice < 0:
		m.focusChoice = n - 1
	default:
		m.focusChoice = (m.focusChoice + delta + n) % n
	}
	m.setField(lifeplan.FieldPrimaryFocus, string(lifeplan.FocusAreas[m.focusChoice]))
}

func (m *Model) setField(field lifeplan.Field, value string) {
	m.intent(m.ctrl.SetField(field, value))
	m.snap = m.ctrl.Snapshot()
}

// === Generating / Showing / Failed ===

func (m Model) updateGenerating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "h":
		// Navigation is refused while the plan is generated.
		m.intent(m.ctrl.Navigate(lifeplan.StateLanding))
	}
	return m, nil
}

func (m Model) updateShowing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.intent(m.ctrl.Reset())
		return m, m.sync()
	case "e":
		m.intent(m.ctrl.Navigate(lifeplan.StateCollecting))
		return m, m.sync()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "t":
		if m.snap.Retryable {
			m.intent(m.ctrl.Retry())
			return m, m.sync()
		}
	case "r":
		m.intent(m.ctrl.Reset())
		return m, m.sync()
	}
	return m, nil
}

// intent reports a rejected controller intent.
func (m *Model) intent(err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrGenerationInFlight):
		m.notice = stillGenerating
	default:
		m.logger.Debug("intent rejected", zap.Stringer("state", m.snap.State), zap.Error(err))
	}
}

func (m *Model) renderPlan() {
	if m.snap.Plan == nil {
		return
	}
	md := render.Markdown(m.snap.Input, m.snap.Plan)
	out, err := render.Terminal(md, m.width-6)
	if err != nil {
		m.logger.Warn("failed to render plan", zap.Error(err))
		out = md
	}
	m.viewport.SetContent(out)
}

// === View ===

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(StyleBrand.Render("AI LIFE PLANNER"))
	b.WriteString("\n\n")

	switch m.snap.State {
	case lifeplan.StateLanding:
		b.WriteString(m.viewLanding())
	case lifeplan.StateCollecting:
		b.WriteString(m.viewForm())
	case lifeplan.StateGenerating:
		b.WriteString(m.viewGenerating())
	case lifeplan.StateShowing:
		b.WriteString(m.viewport.View())
	case lifeplan.StateFailed:
		b.WriteString(m.viewFailed())
	}

	if m.notice != "" {
		b.WriteString("\n" + StyleWarning.Render(m.notice))
	}
	b.WriteString("\n" + StyleHelp.Render(m.help()))
	return b.String()
}

func (m Model) viewLanding() string {
	var b strings.Builder
	b.WriteString(StyleHeadline.Render("Master Your Time.") + " " + StyleTagline.Render("Design Your Life.") + "\n\n")
	b.WriteString(StyleText.Render("Stop drifting and start living intentionally. Let our advanced AI build a highly personalized, actionable roadmap to achieve your biggest goals."))
	b.WriteString("\n\n")

	tasks := m.todos.Tasks()
	var list strings.Builder
	list.WriteString(StyleSectionTitle.Render("Your Tasks"))
	list.WriteString(StyleSubtle.Render(fmt.Sprintf(" (%d remaining)", m.todos.Remaining())) + "\n")
	if len(tasks) == 0 {
		list.WriteString(StyleSubtle.Render("All caught up! Time to plan your next move.") + "\n")
	}
	for i, t := range tasks {
		cursor := "  "
		if i == m.todoCursor && !m.addingTodo {
			cursor = StyleTagline.Render("> ")
		}
		check, text := "[ ]", StyleText.Render(t.Text)
		if t.Completed {
			check, text = StyleSuccess.Render("[x]"), StyleSubtle.Strikethrough(true).Render(t.Text)
		}
		list.WriteString(fmt.Sprintf("%s%s %s\n", cursor, check, text))
	}
	if m.addingTodo {
		list.WriteString(m.todoInput.View())
	}
	b.WriteString(StyleBox.Render(strings.TrimRight(list.String(), "\n")))
	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(StyleHeadline.Render("Tell us about yourself") + "\n")
	b.WriteString(StyleSubtle.Render("The more specific you are, the better the AI can tailor your plan.") + "\n\n")

	for i, f := range lifeplan.Fields {
		label := StyleLabel
		if i == m.focused {
			label = StyleLabelFocused
		}
		b.WriteString(label.Render(fieldLabels[f]) + "\n")

		if f == lifeplan.FieldPrimaryFocus {
			choice := StyleSubtle.Render("Select an area")
			if m.focusChoice >= 0 {
				choice = StyleText.Render(string(lifeplan.FocusAreas[m.focusChoice]))
			}
			b.WriteString("‹ " + choice + " ›\n")
		} else {
			b.WriteString(m.inputs[i].View() + "\n")
		}

		if msg, bad := m.snap.FieldErrors[f]; bad {
			b.WriteString(StyleError.Render(msg) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewGenerating() string {
	name := strings.TrimSpace(m.snap.Input.Name)
	return fmt.Sprintf("%s %s", m.spinner.View(),
		StyleText.Render(fmt.Sprintf("Designing your personalized plan, %s...", name)))
}

func (m Model) viewFailed() string {
	body := StyleError.Bold(true).Render("Oops! Something went wrong") + "\n\n" + StyleText.Render(m.snap.ErrorMessage)
	return StyleErrorBox.Render(body)
}

func (m Model) help() string {
	switch m.snap.State {
	case lifeplan.StateLanding:
		if m.addingTodo {
			return "enter add • esc cancel"
		}
		return "enter build my plan • a add task • space toggle • x delete • q quit"
	case lifeplan.StateCollecting:
		return "tab/↑↓ move • ←/→ pick focus area • ctrl+s submit • esc cancel"
	case lifeplan.StateGenerating:
		return "q quit"
	case lifeplan.StateShowing:
		return "↑/↓ scroll • e edit answers • r start over • q quit"
	case lifeplan.StateFailed:
		if m.snap.Retryable {
			return "t try again • r start over • q quit"
		}
		return "r start over • q quit"
	}
	return ""
}
