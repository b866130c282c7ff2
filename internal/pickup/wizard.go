package pickup

import (
	"context"
	"fmt"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/catalog"
	"recycle-pickup-api-server/internal/models"
)

// Phase is the coarse state of a wizard; within PhaseEditing the current
// step index says where the user is.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
)

type event string

const (
	eventEdit        event = "edit"
	eventNext        event = "next"
	eventBack        event = "back"
	eventSubmit      event = "submit"
	eventSubmitOK    event = "submit-ok"
	eventSubmitError event = "submit-error"
)

var transitions = map[Phase]map[event]Phase{
	PhaseEditing: {
		eventEdit:   PhaseEditing,
		eventNext:   PhaseEditing,
		eventBack:   PhaseEditing,
		eventSubmit: PhaseSubmitting,
	},
	PhaseSubmitting: {
		eventSubmitOK:    PhaseSubmitted,
		eventSubmitError: PhaseEditing,
	},
	PhaseSubmitted: {},
}

// PhotoResolver turns local photo references into URLs.
type PhotoResolver interface {
	Resolve(ctx context.Context, materials []models.MaterialEntry) ([]models.MaterialEntry, error)
}

// Submitter sends finished form data to the backend.
type Submitter interface {
	Submit(ctx context.Context, caller models.Caller, data FormData) (*models.Pickup, error)
}

// Wizard is the multi-step pickup request form. It is not safe for
// concurrent use; a session owns exactly one.
type Wizard struct {
	steps   []Step
	index   int
	phase   Phase
	data    FormData
	pickup  *models.Pickup
	lastErr error
}

// NewWizard starts a wizard on the first of steps (DefaultSteps when none
// are given) with empty form data.
func NewWizard(steps ...Step) (*Wizard, error) {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	seen := make(map[Step]bool, len(steps))
	for _, s := range steps {
		if !s.Valid() {
			return nil, fmt.Errorf("unknown wizard step %q", s)
		}
		if seen[s] {
			return nil, fmt.Errorf("wizard step %q listed twice", s)
		}
		seen[s] = true
	}
	return &Wizard{
		steps: append([]Step(nil), steps...),
		phase: PhaseEditing,
	}, nil
}

func (w *Wizard) Steps() []Step          { return append([]Step(nil), w.steps...) }
func (w *Wizard) Step() Step             { return w.steps[w.index] }
func (w *Wizard) StepIndex() int         { return w.index }
func (w *Wizard) Phase() Phase           { return w.phase }
func (w *Wizard) Data() FormData         { return w.data.Clone() }
func (w *Wizard) Pickup() *models.Pickup { return w.pickup }

// LastError is the failure of the most recent submission attempt, cleared by
// the next attempt.
func (w *Wizard) LastError() error { return w.lastErr }

func (w *Wizard) IsFirstStep() bool { return w.index == 0 }
func (w *Wizard) IsLastStep() bool  { return w.index == len(w.steps)-1 }

// CanAdvance reports whether the current step validates.
func (w *Wizard) CanAdvance() bool {
	return w.phase == PhaseEditing && IsStepComplete(w.Step(), w.data)
}

func (w *Wizard) allow(ev event) error {
	if _, ok := transitions[w.phase][ev]; ok {
		return nil
	}
	switch w.phase {
	case PhaseSubmitting:
		return ErrSubmitting
	case PhaseSubmitted:
		return ErrAlreadySubmitted
	}
	return apperr.New(apperr.CodeFailedPrecondition, "%s is not allowed while %s", ev, w.phase)
}

func (w *Wizard) fire(ev event) {
	w.phase = transitions[w.phase][ev]
}

// Update applies fn to the form data.
func (w *Wizard) Update(fn func(*FormData)) error {
	if err := w.allow(eventEdit); err != nil {
		return err
	}
	fn(&w.data)
	return nil
}

// SetData replaces the form data.
func (w *Wizard) SetData(data FormData) error {
	return w.Update(func(d *FormData) { *d = data.Clone() })
}

// AddPhoto appends ref to the photos of material i.
func (w *Wizard) AddPhoto(i int, ref string) error {
	if err := w.allow(eventEdit); err != nil {
		return err
	}
	if i < 0 || i >= len(w.data.Materials) {
		return ErrMaterialOutOfRange
	}
	w.data.Materials[i].Photos = append(w.data.Materials[i].Photos, ref)
	return nil
}

// Next moves to the following step when the current one validates.
func (w *Wizard) Next() error {
	if err := w.allow(eventNext); err != nil {
		return err
	}
	if w.IsLastStep() {
		return ErrLastStep
	}
	if !IsStepComplete(w.Step(), w.data) {
		return ErrStepIncomplete
	}
	w.index++
	w.fire(eventNext)
	return nil
}

// Back moves to the previous step, keeping everything entered so far.
func (w *Wizard) Back() error {
	if err := w.allow(eventBack); err != nil {
		return err
	}
	if w.IsFirstStep() {
		return ErrFirstStep
	}
	w.index--
	w.fire(eventBack)
	return nil
}

// CheckSubmit reports why the wizard cannot be submitted yet, or nil.
// Every step is re-checked because the data may have been replaced wholesale
// after the user moved past a step.
func (w *Wizard) CheckSubmit() error {
	if err := w.allow(eventSubmit); err != nil {
		return err
	}
	if !w.IsLastStep() {
		return ErrNotLastStep
	}
	for _, s := range w.steps {
		if !IsStepComplete(s, w.data) {
			return apperr.New(apperr.CodeInvalidArgument, "step %q is incomplete", s)
		}
	}
	// Local photo references count toward a required photo; they are
	// uploaded only after this check passes.
	for i, m := range w.data.Materials {
		if err := catalog.Validate(m); err != nil {
			return apperr.Wrap(apperr.CodeInvalidArgument, err, "materials[%d] is invalid", i)
		}
	}
	if !w.data.DisclaimerAccepted {
		return ErrDisclaimerRequired
	}
	if !IsEligible(w.data.Materials) {
		return ErrNotEligible
	}
	return nil
}

// BeginSubmit enters the submitting phase and returns the data to send.
// Edits and further submits are refused until FinishSubmit.
func (w *Wizard) BeginSubmit() (FormData, error) {
	if err := w.CheckSubmit(); err != nil {
		return FormData{}, err
	}
	w.lastErr = nil
	w.fire(eventSubmit)
	return w.data.Clone(), nil
}

// FinishSubmit records the outcome of a submission started by BeginSubmit.
// resolved, when non-nil, replaces the materials so photos that did upload
// are not uploaded again on retry. On failure the wizard stays on the last
// step with its data intact.
func (w *Wizard) FinishSubmit(resolved []models.MaterialEntry, p *models.Pickup, err error) {
	if w.phase != PhaseSubmitting {
		return
	}
	if resolved != nil {
		w.data.Materials = cloneMaterials(resolved)
	}
	if err != nil {
		w.lastErr = err
		w.fire(eventSubmitError)
		return
	}
	w.pickup = p
	w.fire(eventSubmitOK)
}

// Submit runs a whole submission: BeginSubmit, Deliver, FinishSubmit.
func (w *Wizard) Submit(ctx context.Context, caller models.Caller, photos PhotoResolver, submitter Submitter) (*models.Pickup, error) {
	data, err := w.BeginSubmit()
	if err != nil {
		return nil, err
	}
	resolved, p, err := Deliver(ctx, caller, data, photos, submitter)
	w.FinishSubmit(resolved, p, err)
	return p, err
}

// Deliver resolves the photos of data and submits it. It returns the
// materials as far as they got resolved, even on failure.
func Deliver(ctx context.Context, caller models.Caller, data FormData, photos PhotoResolver, submitter Submitter) ([]models.MaterialEntry, *models.Pickup, error) {
	resolved, err := photos.Resolve(ctx, data.Materials)
	if err != nil {
		return resolved, nil, &SubmissionError{Err: err}
	}
	data.Materials = resolved
	p, err := submitter.Submit(ctx, caller, data)
	if err != nil {
		return resolved, nil, err
	}
	return resolved, p, nil
}
