package lifeplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldMessages are shown on the form next to an empty or invalid field.
var fieldMessages = map[Field]string{
	FieldName:              "Name is required",
	FieldPrimaryFocus:      "Please select a focus area",
	FieldShortTermGoal:     "Please enter a short-term goal",
	FieldLongTermGoal:      "Please enter a long-term goal",
	FieldDailyAvailability: "Please estimate your availability",
	FieldBiggestObstacle:   "Please describe your biggest obstacle",
}

// global validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so they line up with Field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "focusarea", func(fl validator.FieldLevel) bool {
		return FocusArea(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("lifeplan: register %q validation: %v", tag, err))
	}
}

// FieldMessage returns the form message for an invalid field.
func FieldMessage(field Field) string {
	return fieldMessages[field]
}

// ValidateInput checks that every field is non-blank and the focus area is a
// known one. It returns nil when the input can be submitted.
func ValidateInput(in UserInput) FieldErrors {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Only reachable with a broken validator setup; block the submit anyway.
		return FieldErrors{FieldName: err.Error()}
	}

	errs := make(FieldErrors, len(validationErrors))
	for _, fe := range validationErrors {
		field := Field(fe.Field())
		errs[field] = FieldMessage(field)
	}
	return errs
}

// ParsePlan decodes a model reply into a GeneratedPlan. The response schema
// is only a request to the service, so the shape is checked here: all four
// fields must be present with the right types, and every routine item,
// habit, step and the quote must be non-blank. Nothing is defaulted.
func ParsePlan(text string) (*GeneratedPlan, error) {
	var plan GeneratedPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	if err := validate.Struct(plan); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var msgs []string
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", e.Namespace(), e.Tag()))
			}
			return nil, fmt.Errorf("plan does not match schema: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("plan does not match schema: %w", err)
	}

	return &plan, nil
}
