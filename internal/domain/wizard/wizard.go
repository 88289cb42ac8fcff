package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
)

const invalidStepMessage = "Please fill in all required fields correctly."

// ErrAttachmentIndex is returned when removing an attachment that does not exist.
var ErrAttachmentIndex = errors.New("attachment index out of range")

// State is the full wizard state. Operations never mutate a State in place.
type State struct {
	StepIndex int            `json:"step_index"`
	Draft     Draft          `json:"draft"`
	Quote     *pricing.Quote `json:"quote,omitempty"`
	Summary   *Summary       `json:"summary,omitempty"`
}

// Result reports the outcome of a user action.
// A failed Result is a correctable validation outcome, not an error.
type Result struct {
	OK         bool         `json:"ok"`
	Errors     []FieldError `json:"errors,omitempty"`
	Message    string       `json:"message,omitempty"`
	AtBoundary bool         `json:"at_boundary,omitempty"`
}

func invalid(message string, errs []FieldError) Result {
	return Result{OK: false, Errors: errs, Message: message}
}

// ChangeResult is returned by Change.
type ChangeResult struct {
	Required     []Field `json:"required"`
	QuoteChanged bool    `json:"quote_changed"`
}

// SubmitOutcome is returned by Submit.
type SubmitOutcome struct {
	State   State
	Receipt *Receipt
	Result  Result
}

// Wizard drives a State through an ordered list of steps.
type Wizard struct {
	steps []StepDefinition
	calc  pricing.Calculator
	now   func() time.Time
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithSteps replaces the default step list.
func WithSteps(steps []StepDefinition) Option {
	return func(w *Wizard) { w.steps = steps }
}

// WithClock sets the clock used for date validation.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// New creates a Wizard pricing with calc.
func New(calc pricing.Calculator, opts ...Option) *Wizard {
	w := &Wizard{
		steps: DefaultSteps(),
		calc:  calc,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Steps returns the step definitions in order.
func (w *Wizard) Steps() []StepDefinition {
	return append([]StepDefinition(nil), w.steps...)
}

// LastIndex returns the index of the final step.
func (w *Wizard) LastIndex() int {
	return len(w.steps) - 1
}

// Reset returns the initial state.
func (w *Wizard) Reset() State {
	return State{StepIndex: 0, Draft: NewDraft()}
}

// Current returns the definition of the step st is on.
func (w *Wizard) Current(st State) StepDefinition {
	return w.steps[w.clamp(st.StepIndex)]
}

// Required returns the current step's required fields under the draft's category.
func (w *Wizard) Required(st State) []Field {
	return w.Current(st).RequiredFor(st.Draft.Category())
}

// Quote prices a draft with the wizard's calculator.
func (w *Wizard) Quote(d Draft) *pricing.Quote {
	return w.calc.Quote(d.PricingInput())
}

// Advance validates the current step against the draft merged with input and
// moves forward. At the last step it is a no-op.
func (w *Wizard) Advance(st State, input map[Field]string) (State, Result) {
	idx := w.clamp(st.StepIndex)
	if idx == w.LastIndex() {
		return st, Result{OK: true, AtBoundary: true}
	}

	draft, res := w.validateStep(st.Draft, w.steps[idx], input)
	if !res.OK {
		return st, res
	}

	next := State{
		StepIndex: idx + 1,
		Draft:     draft,
		Quote:     w.calc.Quote(draft.PricingInput()),
	}
	if w.steps[next.StepIndex].Summarize {
		summary := RenderSummary(next.Draft, next.Quote)
		next.Summary = &summary
	}
	return next, Result{OK: true}
}

// Retreat moves back one step without validation. The draft is kept.
func (w *Wizard) Retreat(st State) State {
	idx := w.clamp(st.StepIndex)
	if idx > 0 {
		idx--
	}
	st.StepIndex = idx
	if !w.steps[idx].Summarize {
		st.Summary = nil
	}
	return st
}

// Change records live field edits. Requiredness follows the category immediately
// and the quote is recomputed when a pricing input changed.
func (w *Wizard) Change(st State, input map[Field]string) (State, ChangeResult) {
	accepted := make(map[Field]string, len(input))
	for f, v := range input {
		if _, known := fieldRules[f]; known {
			accepted[f] = v
		}
	}

	before := st.Draft.PricingInput()
	next := st
	next.StepIndex = w.clamp(st.StepIndex)
	next.Draft = st.Draft.Merge(accepted)
	after := next.Draft.PricingInput()

	changed := before != after
	if changed {
		next.Quote = w.calc.Quote(after)
	}
	w.refreshSummary(&next)

	return next, ChangeResult{
		Required:     w.Required(next),
		QuoteChanged: changed,
	}
}

// Attach stages a batch of image files. See attachment.Admit for the batch rules.
func (w *Wizard) Attach(st State, files []attachment.Staged) (State, Result) {
	accepted, rejected, err := attachment.Admit(len(st.Draft.Attachments), files)
	if err != nil {
		return st, invalid(err.Error(), []FieldError{{Field: FieldAttachments, Message: err.Error()}})
	}

	next := st
	next.Draft = st.Draft.WithAttachments(accepted...)
	w.refreshSummary(&next)

	if len(rejected) > 0 {
		errs := make([]FieldError, 0, len(rejected))
		for _, r := range rejected {
			errs = append(errs, FieldError{Field: FieldAttachments, Message: r.Filename + ": " + r.Err.Error()})
		}
		return next, invalid("Some files were not added.", errs)
	}
	return next, Result{OK: true}
}

// Detach removes the staged attachment at index.
func (w *Wizard) Detach(st State, index int) (State, error) {
	if index < 0 || index >= len(st.Draft.Attachments) {
		return st, ErrAttachmentIndex
	}
	next := st
	next.Draft = st.Draft.WithoutAttachment(index)
	w.refreshSummary(&next)
	return next, nil
}

// Submit validates the final step, prices the draft and hands it to s exactly once.
// On success the returned state is reset. On failure the draft is kept and the
// error is a *SubmissionError.
func (w *Wizard) Submit(ctx context.Context, st State, input map[Field]string, ownerID uuid.UUID, s Submitter) (SubmitOutcome, error) {
	idx := w.clamp(st.StepIndex)
	if idx != w.LastIndex() {
		return SubmitOutcome{State: st, Result: invalid("Complete every step before submitting.", nil)}, nil
	}

	draft, res := w.validateStep(st.Draft, w.steps[idx], input)
	if !res.OK {
		return SubmitOutcome{State: st, Result: res}, nil
	}
	for i := 0; i < idx; i++ {
		if _, res := w.validateStep(draft, w.steps[i], nil); !res.OK {
			return SubmitOutcome{State: st, Result: res}, nil
		}
	}

	quote := w.calc.Quote(draft.PricingInput())
	if quote == nil {
		return SubmitOutcome{State: st, Result: invalid("The price could not be calculated. Review the service details.", nil)}, nil
	}

	pending := State{StepIndex: idx, Draft: draft, Quote: quote}
	w.refreshSummary(&pending)

	receipt, err := s.Submit(ctx, SubmissionPackage{
		OwnerID:     ownerID,
		Fields:      draft.SubmissionFields(),
		Attachments: draft.Attachments,
		Quote:       *quote,
	})
	if err != nil {
		subErr := classifySubmissionError(err)
		return SubmitOutcome{State: pending, Result: invalid(subErr.Message, subErr.Fields)}, subErr
	}

	return SubmitOutcome{State: w.Reset(), Receipt: &receipt, Result: Result{OK: true}}, nil
}

func (w *Wizard) validateStep(d Draft, step StepDefinition, input map[Field]string) (Draft, Result) {
	collected := make(map[Field]string)
	for _, f := range step.Collects() {
		if v, ok := input[f]; ok {
			collected[f] = v
		}
	}
	view := d.Merge(collected)

	category := view.Category()
	checked := step.Fields
	if step.CategoryScoped {
		checked = append(append([]Field(nil), step.Fields...), categoryFields[category]...)
	}

	normalized, errs := ValidateFields(view.Values, checked, step.RequiredFor(category), w.now())
	if len(errs) > 0 {
		return d, invalid(invalidStepMessage, errs)
	}
	return view.Merge(normalized), Result{OK: true}
}

func (w *Wizard) refreshSummary(st *State) {
	if !w.steps[w.clamp(st.StepIndex)].Summarize {
		return
	}
	summary := RenderSummary(st.Draft, st.Quote)
	st.Summary = &summary
}

func (w *Wizard) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > w.LastIndex() {
		return w.LastIndex()
	}
	return i
}
