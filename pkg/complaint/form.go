package complaint

import (
	"context"
	"errors"
	"time"
)

var (
	ErrIncomplete       = errors.New("please fill in all required fields and accept the consent checkbox")
	ErrSubmitInProgress = errors.New("complaint submission already in progress")
	ErrAlreadySubmitted = errors.New("complaint already submitted")
	ErrNotFound         = errors.New("complaint draft not found")
)

// User-facing messages kept on the form.
const (
	IncompleteMessage   = "Please fill in all required fields and accept the consent checkbox."
	SubmitFailedMessage = "Failed to submit complaint. Please try again."
)

type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateFailed     State = "failed"
)

// Submitter sends a complete draft to the categorization backend.
type Submitter interface {
	SubmitComplaint(ctx context.Context, d Draft) (SubmissionResult, error)
}

// Form is the wizard state machine for one citizen complaint.
type Form struct {
	ID        string            `json:"id" bson:"_id"`
	Step      int               `json:"step" bson:"step"`
	Draft     Draft             `json:"draft" bson:"draft"`
	State     State             `json:"state" bson:"state"`
	Result    *SubmissionResult `json:"result,omitempty" bson:"result,omitempty"`
	Error     string            `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

func NewForm(id string) *Form {
	now := time.Now().UTC()
	return &Form{
		ID:        id,
		Step:      FirstStep,
		Draft:     NewDraft(),
		State:     StateEditing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *Form) touch() {
	f.UpdatedAt = time.Now().UTC()
}

func (f *Form) editable() bool {
	return f.State == StateEditing || f.State == StateFailed
}

// UpdateData merges p into the draft. It never validates.
func (f *Form) UpdateData(p Patch) error {
	switch f.State {
	case StateSubmitting:
		return ErrSubmitInProgress
	case StateSubmitted:
		return ErrAlreadySubmitted
	}
	f.Draft.Apply(p)
	f.touch()
	return nil
}

// CanAdvance reports whether Next would move forward.
func (f *Form) CanAdvance() bool {
	return f.editable() && f.Step < FinalStep && Validate(f.Draft, f.Step)
}

// CanSubmit reports whether the submit action is enabled.
func (f *Form) CanSubmit() bool {
	return f.editable() && f.Step == FinalStep && Validate(f.Draft, FinalStep)
}

// Next advances one step when the current step validates. It reports
// whether the step changed.
func (f *Form) Next() bool {
	if !f.editable() || !Validate(f.Draft, f.Step) {
		return false
	}
	if f.Step >= FinalStep {
		f.Step = FinalStep
		return false
	}
	f.Step++
	f.touch()
	return true
}

// Prev moves back one step, never below the first.
func (f *Form) Prev() bool {
	if !f.editable() || f.Step <= FirstStep {
		return false
	}
	f.Step--
	f.touch()
	return true
}

// BeginSubmit moves the form into the submitting state. Callers that
// persist forms save after BeginSubmit so a concurrent submit is refused.
func (f *Form) BeginSubmit() error {
	switch f.State {
	case StateSubmitting:
		return ErrSubmitInProgress
	case StateSubmitted:
		return ErrAlreadySubmitted
	}
	if !Validate(f.Draft, FinalStep) {
		f.Error = IncompleteMessage
		f.touch()
		return ErrIncomplete
	}
	f.State = StateSubmitting
	f.Error = ""
	f.touch()
	return nil
}

// CompleteSubmit records a successful submission and discards the draft.
func (f *Form) CompleteSubmit(r SubmissionResult) {
	f.State = StateSubmitted
	f.Result = &r
	f.Draft = NewDraft()
	f.Error = ""
	f.touch()
}

// FailSubmit returns the form to step 5 with the draft intact.
func (f *Form) FailSubmit() {
	f.State = StateFailed
	f.Step = FinalStep
	f.Error = SubmitFailedMessage
	f.touch()
}

// Submit runs the whole submission: exactly one call to s, no retries.
func (f *Form) Submit(ctx context.Context, s Submitter) error {
	if err := f.BeginSubmit(); err != nil {
		return err
	}
	result, err := s.SubmitComplaint(ctx, f.Draft)
	if err != nil {
		f.FailSubmit()
		return err
	}
	f.CompleteSubmit(result)
	return nil
}

// Reset starts the wizard over.
func (f *Form) Reset() {
	f.Step = FirstStep
	f.Draft = NewDraft()
	f.State = StateEditing
	f.Result = nil
	f.Error = ""
	f.touch()
}

// View is the client-facing projection of a form.
type View struct {
	*Form
	Current    StepView `json:"current"`
	CanAdvance bool     `json:"can_advance"`
	CanSubmit  bool     `json:"can_submit"`
	CanGoBack  bool     `json:"can_go_back"`
}

func (f *Form) View() View {
	return View{
		Form:       f,
		Current:    Render(StepFor(f.Step, f.Draft)),
		CanAdvance: f.CanAdvance(),
		CanSubmit:  f.CanSubmit(),
		CanGoBack:  f.editable() && f.Step > FirstStep,
	}
}
