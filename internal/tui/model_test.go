package tui

import (
	"context"
	"errors"
	"testing"

	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/session"
	"ai-life-planner/internal/shared"
	"ai-life-planner/internal/todo"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubGenerator struct {
	err     error
	release chan struct{}
}

func (g *stubGenerator) GeneratePlan(ctx context.Context, input lifeplan.UserInput) (*lifeplan.GeneratedPlan, shared.AgentMeta, error) {
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return nil, shared.AgentMeta{}, g.err
	}
	return &lifeplan.GeneratedPlan{
		DailyRoutine:      []lifeplan.RoutineItem{{TimeOfDay: "Morning", Activity: "Stretch", Duration: "20 minutes"}},
		HabitsToBuild:     []string{"Hydrate"},
		ActionableSteps:   []string{"Register"},
		MotivationalQuote: "Keep going.",
	}, shared.AgentMeta{}, nil
}

func newTestModel(t *testing.T, gen session.Generator) (Model, *session.Controller) {
	t.Helper()
	feed := NewFeed()
	ctrl := session.NewController(context.Background(), gen,
		session.WithListener(feed.Listen),
		session.WithLogger(zaptest.NewLogger(t)),
	)
	t.Cleanup(ctrl.Wait)
	return New(ctrl, feed, todo.NewList(), zaptest.NewLogger(t)), ctrl
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// fillForm types a complete answer set, starting on the name field.
func fillForm(t *testing.T, m Model) Model {
	t.Helper()
	return press(t, m,
		runes("Sam"), key(tea.KeyTab),
		key(tea.KeyRight), key(tea.KeyRight), key(tea.KeyTab), // Health & Fitness
		runes("Run 5k"), key(tea.KeyTab),
		runes("Run marathon"), key(tea.KeyTab),
		runes("1 hour evenings"), key(tea.KeyTab),
		runes("low energy"),
	)
}

func TestLandingToForm(t *testing.T) {
	m, ctrl := newTestModel(t, &stubGenerator{})
	assert.Contains(t, m.View(), "Master Your Time.")

	m = press(t, m, key(tea.KeyEnter))
	assert.Equal(t, lifeplan.StateCollecting, ctrl.State())
	assert.Contains(t, m.View(), "Tell us about yourself")

	m = press(t, m, key(tea.KeyEsc))
	assert.Equal(t, lifeplan.StateLanding, ctrl.State())
}

func TestTypingUpdatesDraft(t *testing.T) {
	m, ctrl := newTestModel(t, &stubGenerator{})
	m = press(t, m, key(tea.KeyEnter))
	m = fillForm(t, m)

	snap := ctrl.Snapshot()
	assert.Equal(t, "Sam", snap.Input.Name)
	assert.Equal(t, lifeplan.FocusHealth, snap.Input.PrimaryFocus)
	assert.Equal(t, "low energy", snap.Input.BiggestObstacle)
	assert.Equal(t, "Sam", m.draft().Name)
}

func TestSubmitShowsFieldErrors(t *testing.T) {
	m, ctrl := newTestModel(t, &stubGenerator{})
	m = press(t, m, key(tea.KeyEnter), runes("Sam"), key(tea.KeyCtrlS))

	assert.Equal(t, lifeplan.StateCollecting, ctrl.State())
	view := m.View()
	assert.Contains(t, view, "Please select a focus area")
	assert.Contains(t, view, "Please describe your biggest obstacle")
	assert.NotContains(t, view, "Name is required")
	assert.Equal(t, 1, m.focused, "focus jumps to the first invalid field")

	// Picking an area clears its message.
	m = press(t, m, key(tea.KeyRight))
	assert.NotContains(t, m.View(), "Please select a focus area")
}

func TestSubmitAndShowPlan(t *testing.T) {
	m, ctrl := newTestModel(t, &stubGenerator{})
	m = press(t, m, key(tea.KeyEnter))
	m = fillForm(t, m)
	m = press(t, m, key(tea.KeyCtrlS))

	ctrl.Wait()
	next, _ := m.Update(MsgStateChanged{})
	m = next.(Model)

	assert.Equal(t, lifeplan.StateShowing, m.snap.State)
	assert.Contains(t, m.View(), "Stretch")

	m = press(t, m, runes("r"))
	assert.Equal(t, lifeplan.StateLanding, ctrl.State())
	assert.Nil(t, ctrl.Snapshot().Plan)
}

func TestGeneratingRefusesNavigation(t *testing.T) {
	gen := &stubGenerator{release: make(chan struct{})}
	m, ctrl := newTestModel(t, gen)
	m = press(t, m, key(tea.KeyEnter))
	m = fillForm(t, m)
	m = press(t, m, key(tea.KeyEnter)) // enter on the last field submits

	require.Equal(t, lifeplan.StateGenerating, ctrl.State())
	assert.Contains(t, m.View(), "Designing your personalized plan, Sam")

	m = press(t, m, key(tea.KeyEsc))
	assert.Equal(t, lifeplan.StateGenerating, ctrl.State())
	assert.Contains(t, m.View(), stillGenerating)

	close(gen.release)
	ctrl.Wait()
	next, _ := m.Update(MsgStateChanged{})
	m = next.(Model)
	assert.NotContains(t, m.View(), stillGenerating)
}

func TestFailureAndRetry(t *testing.T) {
	m, ctrl := newTestModel(t, &stubGenerator{err: lifeplan.NewGenerationError(errors.New("boom"))})
	m = press(t, m, key(tea.KeyEnter))
	m = fillForm(t, m)
	m = press(t, m, key(tea.KeyCtrlS))
	ctrl.Wait()
	next, _ := m.Update(MsgStateChanged{})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Oops! Something went wrong")
	assert.Contains(t, view, lifeplan.GenericFailureMessage)
	assert.Contains(t, view, "t try again")

	m = press(t, m, runes("t"))
	assert.Equal(t, lifeplan.StateCollecting, ctrl.State())
	assert.Equal(t, "Sam", m.inputs[0].Value(), "retry restores the previous answers")
	assert.Equal(t, 1, m.focusChoice)
}

func TestConfigurationFailureHidesRetry(t *testing.T) {
	m, ctrl := newTestModel(t, &stubGenerator{err: &lifeplan.ConfigurationError{Message: "GEMINI_API_KEY environment variable not set"}})
	m = press(t, m, key(tea.KeyEnter))
	m = fillForm(t, m)
	m = press(t, m, key(tea.KeyCtrlS))
	ctrl.Wait()
	next, _ := m.Update(MsgStateChanged{})
	m = next.(Model)

	assert.NotContains(t, m.View(), "t try again")
	m = press(t, m, runes("t"))
	assert.Equal(t, lifeplan.StateFailed, ctrl.State())
}

func TestTodoWidget(t *testing.T) {
	m, _ := newTestModel(t, &stubGenerator{})

	m = press(t, m, runes("a"), runes("Walk"), key(tea.KeyEnter))
	tasks := m.todos.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, "Walk", tasks[3].Text)
	assert.Equal(t, 3, m.todoCursor)

	m = press(t, m, key(tea.KeySpace))
	assert.True(t, m.todos.Tasks()[3].Completed)

	m = press(t, m, runes("x"))
	assert.Len(t, m.todos.Tasks(), 3)
	assert.Equal(t, 2, m.todoCursor)

	m = press(t, m, runes("a"), key(tea.KeyEsc))
	assert.False(t, m.addingTodo)
	assert.Len(t, m.todos.Tasks(), 3)
}

func TestFeedCollapsesChanges(t *testing.T) {
	feed := NewFeed()
	feed.Listen(session.Snapshot{})
	feed.Listen(session.Snapshot{})

	msg := feed.wait()()
	assert.IsType(t, MsgStateChanged{}, msg)
	assert.Len(t, feed.ch, 0)
}
