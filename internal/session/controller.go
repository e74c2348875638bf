// Package session holds the view-state machine behind every front end. A
// Controller owns the draft input, the generated plan and the last failure
// message, and is the only caller of the plan generator.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/shared"

	"go.uber.org/zap"
)

var (
	// ErrIgnored is returned for an intent that has no transition from the
	// current state. State is left unchanged.
	ErrIgnored = errors.New("intent ignored in current state")
	// ErrGenerationInFlight is returned for submit and navigation intents
	// while a plan is being generated.
	ErrGenerationInFlight = errors.New("a plan is already being generated")
)

// Generator produces a plan for a validated input.
type Generator interface {
	GeneratePlan(ctx context.Context, input lifeplan.UserInput) (*lifeplan.GeneratedPlan, shared.AgentMeta, error)
}

// UsageRecorder persists the usage metadata of a generation attempt.
type UsageRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Listener is called with a fresh snapshot after every state change. It runs
// on the goroutine that caused the change, outside the controller lock, and
// must not block.
type Listener func(Snapshot)

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	// Session changes every time a generation starts or the controller resets.
	Session     uint64
	State       lifeplan.ViewState
	Input       lifeplan.UserInput
	FieldErrors lifeplan.FieldErrors
	// Plan is set in StateShowing only.
	Plan *lifeplan.GeneratedPlan
	// ErrorMessage and Retryable are set in StateFailed only.
	ErrorMessage string
	Retryable    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithListener registers a listener for state changes.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, l) }
}

// WithUsageRecorder records the usage of every generation attempt.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each generation call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// Controller is the view-state machine. It is safe for concurrent use.
type Controller struct {
	ctx       context.Context
	gen       Generator
	recorder  UsageRecorder
	logger    *zap.Logger
	timeout   time.Duration
	listeners []Listener

	mu        sync.Mutex
	state     lifeplan.ViewState
	draft     lifeplan.UserInput
	fieldErrs lifeplan.FieldErrors
	plan      *lifeplan.GeneratedPlan
	errMsg    string
	retryable bool
	token     uint64

	inflight sync.WaitGroup
}

// NewController returns a controller on the landing screen. ctx is the parent
// of every generation call.
func NewController(ctx context.Context, gen Generator, opts ...Option) *Controller {
	c := &Controller{
		ctx:    ctx,
		gen:    gen,
		logger: zap.NewNop(),
		state:  lifeplan.StateLanding,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the active screen.
func (c *Controller) State() lifeplan.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens the form with an empty draft.
func (c *Controller) Start() error {
	return c.transition(func() error {
		if c.state != lifeplan.StateLanding {
			return c.rejectLocked()
		}
		c.draft = lifeplan.UserInput{}
		c.fieldErrs = nil
		c.state = lifeplan.StateCollecting
		return nil
	})
}

// Cancel leaves the form and discards the draft.
func (c *Controller) Cancel() error {
	return c.transition(func() error {
		if c.state != lifeplan.StateCollecting {
			return c.rejectLocked()
		}
		c.clearLocked()
		return nil
	})
}

// SetField replaces the draft with a copy that has field set to value, and
// clears the validation error of that field.
func (c *Controller) SetField(field lifeplan.Field, value string) error {
	return c.transition(func() error {
		if c.state != lifeplan.StateCollecting {
			return c.rejectLocked()
		}
		c.draft = c.draft.With(field, value)
		if _, ok := c.fieldErrs[field]; ok {
			errs := make(lifeplan.FieldErrors, len(c.fieldErrs))
			for f, msg := range c.fieldErrs {
				if f != field {
					errs[f] = msg
				}
			}
			if len(errs) == 0 {
				errs = nil
			}
			c.fieldErrs = errs
		}
		return nil
	})
}

// Submit validates draft and, when it is complete, starts generating a plan
// in the background. An incomplete draft is kept, and the returned error is
// the lifeplan.FieldErrors also exposed on the snapshot.
func (c *Controller) Submit(draft lifeplan.UserInput) error {
	var (
		token uint64
		start bool
	)

	err := c.transition(func() error {
		if c.state != lifeplan.StateCollecting {
			return c.rejectLocked()
		}
		c.draft = draft
		if errs := lifeplan.ValidateInput(draft); errs != nil {
			c.fieldErrs = errs
			return errs
		}

		c.fieldErrs = nil
		c.token++
		c.state = lifeplan.StateGenerating
		token, start = c.token, true
		return nil
	})

	if start {
		c.inflight.Add(1)
		go c.generate(token, draft)
	}
	return err
}

// Retry returns from a failure to the form with the previous draft.
func (c *Controller) Retry() error {
	return c.transition(func() error {
		if c.state != lifeplan.StateFailed {
			return c.rejectLocked()
		}
		c.errMsg = ""
		c.retryable = false
		c.state = lifeplan.StateCollecting
		return nil
	})
}

// Reset returns to the landing screen and discards the draft, the plan and
// the error. Resetting while generating abandons the call: its result is
// dropped when it arrives.
func (c *Controller) Reset() error {
	return c.transition(func() error {
		if c.state == lifeplan.StateLanding {
			return ErrIgnored
		}
		if c.state == lifeplan.StateGenerating {
			c.token++
		}
		c.clearLocked()
		return nil
	})
}

// Navigate moves to the landing screen or the form from anywhere except
// while a plan is being generated. Leaving a plan or a failure for the form
// keeps the draft.
func (c *Controller) Navigate(target lifeplan.ViewState) error {
	return c.transition(func() error {
		if c.state == lifeplan.StateGenerating {
			return ErrGenerationInFlight
		}
		if c.state == target {
			return nil
		}

		switch target {
		case lifeplan.StateLanding:
			c.clearLocked()
		case lifeplan.StateCollecting:
			if c.state == lifeplan.StateLanding {
				c.draft = lifeplan.UserInput{}
			}
			c.fieldErrs = nil
			c.plan = nil
			c.errMsg = ""
			c.retryable = false
			c.state = lifeplan.StateCollecting
		default:
			return ErrIgnored
		}
		return nil
	})
}

// Wait blocks until every started generation call has finished and its
// result has been applied or discarded.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) generate(token uint64, input lifeplan.UserInput) {
	defer c.inflight.Done()

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	plan, meta, err := c.gen.GeneratePlan(ctx, input)
	if err == nil && plan == nil {
		err = lifeplan.NewGenerationError(errors.New("generator returned no plan"))
	}

	if c.recorder != nil && meta.HasUsage() {
		if recErr := c.recorder.RecordMeta(meta); recErr != nil {
			c.logger.Warn("failed to record usage", zap.Error(recErr))
		}
	}

	c.complete(token, plan, err)
}

func (c *Controller) complete(token uint64, plan *lifeplan.GeneratedPlan, err error) {
	c.mu.Lock()
	if token != c.token || c.state != lifeplan.StateGenerating {
		c.mu.Unlock()
		c.logger.Info("discarding stale generation result",
			zap.Uint64("session", token),
			zap.Bool("failed", err != nil),
		)
		return
	}

	if err != nil {
		c.state = lifeplan.StateFailed
		c.errMsg = failureMessage(err)
		c.retryable = !errors.Is(err, lifeplan.ErrConfiguration)
	} else {
		c.state = lifeplan.StateShowing
		c.plan = plan
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("generation finished", zap.Stringer("state", snap.State), zap.Uint64("session", token))
	c.notify(snap)
}

// transition runs fn under the lock and notifies listeners when it succeeds
// or records field errors.
func (c *Controller) transition(fn func() error) error {
	c.mu.Lock()
	from := c.state
	err := fn()
	var fieldErrs lifeplan.FieldErrors
	changed := err == nil || errors.As(err, &fieldErrs)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if !changed {
		return err
	}
	if from != snap.State {
		c.logger.Debug("state changed", zap.Stringer("from", from), zap.Stringer("to", snap.State))
	}
	c.notify(snap)
	return err
}

func (c *Controller) notify(snap Snapshot) {
	for _, l := range c.listeners {
		l(snap)
	}
}

func (c *Controller) rejectLocked() error {
	if c.state == lifeplan.StateGenerating {
		return ErrGenerationInFlight
	}
	return ErrIgnored
}

func (c *Controller) clearLocked() {
	c.state = lifeplan.StateLanding
	c.draft = lifeplan.UserInput{}
	c.fieldErrs = nil
	c.plan = nil
	c.errMsg = ""
	c.retryable = false
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Session: c.token,
		State:   c.state,
		Input:   c.draft,
		Plan:    c.plan.Clone(),
	}
	if len(c.fieldErrs) > 0 {
		snap.FieldErrors = make(lifeplan.FieldErrors, len(c.fieldErrs))
		for f, msg := range c.fieldErrs {
			snap.FieldErrors[f] = msg
		}
	}
	if c.state == lifeplan.StateFailed {
		snap.ErrorMessage = c.errMsg
		snap.Retryable = c.retryable
	}
	return snap
}

// failureMessage keeps the messages of the known error kinds and hides
// anything else behind the generic one.
func failureMessage(err error) string {
	var cfgErr *lifeplan.ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr.Message != "" {
		return cfgErr.Message
	}
	var genErr *lifeplan.GenerationError
	if errors.As(err, &genErr) && genErr.Message != "" {
		return genErr.Message
	}
	return lifeplan.GenericFailureMessage
}
