// Package lifeplan holds the vocabulary shared by the planner, the session
// controller and every front end: what the user tells us, what the model
// returns, and which screen is active.
package lifeplan

import "strings"

// FocusArea is the closed set of areas a plan can be centred on.
type FocusArea string

const (
	FocusCareer         FocusArea = "Career & Professional"
	FocusHealth         FocusArea = "Health & Fitness"
	FocusRelationships  FocusArea = "Relationships & Family"
	FocusPersonalGrowth FocusArea = "Personal Growth & Learning"
	FocusFinance        FocusArea = "Financial Stability"
)

// FocusAreas lists every focus area in presentation order.
var FocusAreas = []FocusArea{
	FocusCareer,
	FocusHealth,
	FocusRelationships,
	FocusPersonalGrowth,
	FocusFinance,
}

// Valid reports whether f is one of FocusAreas. The zero value is not.
func (f FocusArea) Valid() bool {
	for _, area := range FocusAreas {
		if f == area {
			return true
		}
	}
	return false
}

// ParseFocusArea matches s against the focus area labels, ignoring case and
// surrounding whitespace.
func ParseFocusArea(s string) (FocusArea, bool) {
	s = strings.TrimSpace(s)
	for _, area := range FocusAreas {
		if strings.EqualFold(s, string(area)) {
			return area, true
		}
	}
	return "", false
}

// Field names one UserInput attribute. The values double as JSON keys.
type Field string

const (
	FieldName              Field = "name"
	FieldPrimaryFocus      Field = "primaryFocus"
	FieldShortTermGoal     Field = "shortTermGoal"
	FieldLongTermGoal      Field = "longTermGoal"
	FieldDailyAvailability Field = "dailyAvailability"
	FieldBiggestObstacle   Field = "biggestObstacle"
)

// Fields lists the form fields in the order they are collected.
var Fields = []Field{
	FieldName,
	FieldPrimaryFocus,
	FieldShortTermGoal,
	FieldLongTermGoal,
	FieldDailyAvailability,
	FieldBiggestObstacle,
}

// UserInput is the answer set a plan is generated from.
type UserInput struct {
	Name              string    `json:"name" validate:"nonblank"`
	PrimaryFocus      FocusArea `json:"primaryFocus" validate:"focusarea"`
	ShortTermGoal     string    `json:"shortTermGoal" validate:"nonblank"`
	LongTermGoal      string    `json:"longTermGoal" validate:"nonblank"`
	DailyAvailability string    `json:"dailyAvailability" validate:"nonblank"`
	BiggestObstacle   string    `json:"biggestObstacle" validate:"nonblank"`
}

// Get returns the raw value of field.
func (in UserInput) Get(field Field) string {
	switch field {
	case FieldName:
		return in.Name
	case FieldPrimaryFocus:
		return string(in.PrimaryFocus)
	case FieldShortTermGoal:
		return in.ShortTermGoal
	case FieldLongTermGoal:
		return in.LongTermGoal
	case FieldDailyAvailability:
		return in.DailyAvailability
	case FieldBiggestObstacle:
		return in.BiggestObstacle
	}
	return ""
}

// With returns a copy of in with field set to value. The receiver is left
// untouched, so drafts are replaced rather than mutated.
func (in UserInput) With(field Field, value string) UserInput {
	switch field {
	case FieldName:
		in.Name = value
	case FieldPrimaryFocus:
		in.PrimaryFocus = FocusArea(value)
	case FieldShortTermGoal:
		in.ShortTermGoal = value
	case FieldLongTermGoal:
		in.LongTermGoal = value
	case FieldDailyAvailability:
		in.DailyAvailability = value
	case FieldBiggestObstacle:
		in.BiggestObstacle = value
	}
	return in
}

// RoutineItem is one slot of the suggested daily schedule.
type RoutineItem struct {
	TimeOfDay string `json:"timeOfDay" validate:"nonblank"`
	Activity  string `json:"activity" validate:"nonblank"`
	Duration  string `json:"duration" validate:"nonblank"`
}

// GeneratedPlan is the structured answer of the generation service. A plan is
// only ever built by ParsePlan and is not modified afterwards.
type GeneratedPlan struct {
	DailyRoutine      []RoutineItem `json:"dailyRoutine" validate:"required,dive"`
	HabitsToBuild     []string      `json:"habitsToBuild" validate:"required,dive,nonblank"`
	ActionableSteps   []string      `json:"actionableSteps" validate:"required,dive,nonblank"`
	MotivationalQuote string        `json:"motivationalQuote" validate:"nonblank"`
}

// Clone returns a deep copy, so read-only views cannot reach the original slices.
func (p *GeneratedPlan) Clone() *GeneratedPlan {
	if p == nil {
		return nil
	}
	return &GeneratedPlan{
		DailyRoutine:      append([]RoutineItem(nil), p.DailyRoutine...),
		HabitsToBuild:     append([]string(nil), p.HabitsToBuild...),
		ActionableSteps:   append([]string(nil), p.ActionableSteps...),
		MotivationalQuote: p.MotivationalQuote,
	}
}

// ViewState is the active screen.
type ViewState int

const (
	StateLanding ViewState = iota
	StateCollecting
	StateGenerating
	StateShowing
	StateFailed
)

func (s ViewState) String() string {
	switch s {
	case StateLanding:
		return "landing"
	case StateCollecting:
		return "collecting"
	case StateGenerating:
		return "generating"
	case StateShowing:
		return "showing"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
