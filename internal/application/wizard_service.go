package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/attachment"
	"github.com/jayzilla/service-booking/internal/domain/pricing"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
	"github.com/jayzilla/service-booking/internal/platform/domain"
	"github.com/jayzilla/service-booking/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultLockTTL = 2 * time.Minute

// AttachmentView describes a staged file without its bytes.
type AttachmentView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// QuoteView is a quote rendered for clients.
type QuoteView struct {
	Items        []LineItemDTO `json:"items"`
	Total        string        `json:"total"`
	TotalDisplay string        `json:"total_display"`
	Currency     string        `json:"currency"`
}

// SessionView is the client representation of a wizard session.
type SessionView struct {
	ID          uuid.UUID               `json:"id"`
	Step        wizard.Step             `json:"step"`
	StepIndex   int                     `json:"step_index"`
	StepCount   int                     `json:"step_count"`
	Required    []wizard.Field          `json:"required"`
	Values      map[wizard.Field]string `json:"values"`
	Attachments []AttachmentView        `json:"attachments"`
	Quote       *QuoteView              `json:"quote,omitempty"`
	Summary     *wizard.Summary         `json:"summary,omitempty"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ActionResult pairs the session after an action with the action's outcome.
type ActionResult struct {
	Session SessionView   `json:"session"`
	Result  wizard.Result `json:"result"`
}

// ChangeView is returned by Change.
type ChangeView struct {
	Session      SessionView    `json:"session"`
	Required     []wizard.Field `json:"required"`
	QuoteChanged bool           `json:"quote_changed"`
}

// SubmitResult is returned by Submit. Receipt is set only on success. Quote carries
// the current server price when a direct submission quoted a stale total.
type SubmitResult struct {
	Session SessionView     `json:"session"`
	Result  wizard.Result   `json:"result"`
	Receipt *wizard.Receipt `json:"receipt,omitempty"`
	Quote   *QuoteView      `json:"quote,omitempty"`
}

// WizardService runs wizard sessions on behalf of authenticated customers.
type WizardService struct {
	wizard    *wizard.Wizard
	sessions  session.Store
	submitter wizard.Submitter
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewWizardService creates a new WizardService.
func NewWizardService(w *wizard.Wizard, sessions session.Store, submitter wizard.Submitter, logger *zap.Logger) *WizardService {
	return &WizardService{
		wizard:    w,
		sessions:  sessions,
		submitter: submitter,
		lockTTL:   defaultLockTTL,
		logger:    logger,
	}
}

// Start opens a new session at the first step.
func (s *WizardService) Start(ctx context.Context, ownerID uuid.UUID) (*SessionView, error) {
	sess := session.New(ownerID, s.wizard.Reset())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	view := s.view(sess)
	return &view, nil
}

// Get returns the caller's session.
func (s *WizardService) Get(ctx context.Context, id, ownerID uuid.UUID) (*SessionView, error) {
	sess, err := s.load(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	view := s.view(sess)
	return &view, nil
}

// Change records live field edits.
func (s *WizardService) Change(ctx context.Context, id, ownerID uuid.UUID, fields map[wizard.Field]string) (*ChangeView, error) {
	var view *ChangeView
	err := s.locked(ctx, id, func() error {
		sess, err := s.load(ctx, id, ownerID)
		if err != nil {
			return err
		}
		next, res := s.wizard.Change(sess.State, fields)
		sess.State = next
		if err := s.sessions.Save(ctx, sess); err != nil {
			return err
		}
		view = &ChangeView{Session: s.view(sess), Required: res.Required, QuoteChanged: res.QuoteChanged}
		return nil
	})
	return view, err
}

// Advance validates the current step and moves forward.
func (s *WizardService) Advance(ctx context.Context, id, ownerID uuid.UUID, fields map[wizard.Field]string) (*ActionResult, error) {
	return s.act(ctx, id, ownerID, func(st wizard.State) (wizard.State, wizard.Result) {
		return s.wizard.Advance(st, fields)
	})
}

// Retreat moves back one step.
func (s *WizardService) Retreat(ctx context.Context, id, ownerID uuid.UUID) (*ActionResult, error) {
	return s.act(ctx, id, ownerID, func(st wizard.State) (wizard.State, wizard.Result) {
		return s.wizard.Retreat(st), wizard.Result{OK: true}
	})
}

// Reset discards the draft and returns to the first step.
func (s *WizardService) Reset(ctx context.Context, id, ownerID uuid.UUID) (*ActionResult, error) {
	return s.act(ctx, id, ownerID, func(wizard.State) (wizard.State, wizard.Result) {
		return s.wizard.Reset(), wizard.Result{OK: true}
	})
}

// Attach stages uploaded images.
func (s *WizardService) Attach(ctx context.Context, id, ownerID uuid.UUID, files []attachment.Staged) (*ActionResult, error) {
	return s.act(ctx, id, ownerID, func(st wizard.State) (wizard.State, wizard.Result) {
		return s.wizard.Attach(st, files)
	})
}

// Detach removes a staged image.
func (s *WizardService) Detach(ctx context.Context, id, ownerID uuid.UUID, index int) (*ActionResult, error) {
	var result *ActionResult
	err := s.locked(ctx, id, func() error {
		sess, err := s.load(ctx, id, ownerID)
		if err != nil {
			return err
		}
		next, err := s.wizard.Detach(sess.State, index)
		if errors.Is(err, wizard.ErrAttachmentIndex) {
			return domain.NewNotFoundError("attachment", "")
		}
		sess.State = next
		if err := s.sessions.Save(ctx, sess); err != nil {
			return err
		}
		result = &ActionResult{Session: s.view(sess), Result: wizard.Result{OK: true}}
		return nil
	})
	return result, err
}

// Submit sends the finished draft to the submitter. Only one submission per session
// may be in flight; a concurrent call gets a ConflictError. The session is read only
// after the lock is held, so a caller queued behind a finished submission sees the
// reset state. On a *wizard.SubmissionError the pending draft is kept and the
// returned result is still populated.
func (s *WizardService) Submit(ctx context.Context, id, ownerID uuid.UUID, fields map[wizard.Field]string) (*SubmitResult, error) {
	var (
		result    *SubmitResult
		submitErr error
	)
	err := s.locked(ctx, id, func() error {
		sess, err := s.load(ctx, id, ownerID)
		if err != nil {
			return err
		}

		var outcome wizard.SubmitOutcome
		outcome, submitErr = s.wizard.Submit(ctx, sess.State, fields, ownerID, s.submitter)
		sess.State = outcome.State
		if err := s.sessions.Save(context.WithoutCancel(ctx), sess); err != nil {
			s.logger.Error("failed to save session after submit", zap.String("session_id", id.String()), zap.Error(err))
		}
		result = &SubmitResult{Session: s.view(sess), Result: outcome.Result, Receipt: outcome.Receipt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if submitErr != nil {
		var subErr *wizard.SubmissionError
		if errors.As(submitErr, &subErr) {
			s.logger.Warn("submission failed",
				zap.String("session_id", id.String()),
				zap.String("kind", string(subErr.Kind)),
				zap.Error(subErr),
			)
		}
		return result, submitErr
	}
	return result, nil
}

// SubmitDirect submits a complete booking without a stored session. quotedTotal, when
// set, is the total the client displayed; a mismatch is rejected.
func (s *WizardService) SubmitDirect(ctx context.Context, ownerID uuid.UUID, fields map[wizard.Field]string, files []attachment.Staged, quotedTotal string) (*SubmitResult, error) {
	st := wizard.State{StepIndex: s.wizard.LastIndex(), Draft: wizard.NewDraft().Merge(fields)}
	if len(files) > 0 {
		var res wizard.Result
		st, res = s.wizard.Attach(st, files)
		if !res.OK {
			return &SubmitResult{Result: res}, nil
		}
	}

	if quotedTotal != "" {
		quoted, err := decimal.NewFromString(quotedTotal)
		if err != nil {
			return nil, domain.NewFieldValidationError("invalid quoted total", map[string]string{"quotedTotal": "must be a number"})
		}
		server := s.wizard.Quote(st.Draft)
		if server != nil && !server.Equal(pricing.Quote{Total: quoted, Currency: server.Currency}) {
			return &SubmitResult{
				Result: wizard.Result{
					OK:      false,
					Message: "Prices have changed. Review the updated total and submit again.",
					Errors:  []wizard.FieldError{{
						Field:   wizard.FieldQuotedTotal,
						Message: "total is now " + pricing.FormatAmount(server.Total),
					}},
				},
				Quote: quoteView(server),
			}, nil
		}
	}

	outcome, err := s.wizard.Submit(ctx, st, nil, ownerID, s.submitter)
	result := &SubmitResult{Result: outcome.Result, Receipt: outcome.Receipt}
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *WizardService) act(ctx context.Context, id, ownerID uuid.UUID, fn func(wizard.State) (wizard.State, wizard.Result)) (*ActionResult, error) {
	var result *ActionResult
	err := s.locked(ctx, id, func() error {
		sess, err := s.load(ctx, id, ownerID)
		if err != nil {
			return err
		}
		next, res := fn(sess.State)
		sess.State = next
		if err := s.sessions.Save(ctx, sess); err != nil {
			return err
		}
		result = &ActionResult{Session: s.view(sess), Result: res}
		return nil
	})
	return result, err
}

// locked runs fn while holding the session lock. Every read-modify-write of a
// session goes through here; a held lock yields a ConflictError.
func (s *WizardService) locked(ctx context.Context, id uuid.UUID, fn func() error) error {
	ok, err := s.sessions.TryLock(ctx, id, s.lockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewConflictError("wizard session is busy, try again")
	}
	defer func() {
		if err := s.sessions.Unlock(context.WithoutCancel(ctx), id); err != nil {
			s.logger.Warn("failed to release session lock", zap.String("session_id", id.String()), zap.Error(err))
		}
	}()
	return fn()
}

func (s *WizardService) load(ctx context.Context, id, ownerID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, domain.NewNotFoundError("wizard session", id.String())
	}
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, domain.NewForbiddenError("wizard session does not belong to this user")
	}
	return sess, nil
}

func (s *WizardService) view(sess *session.Session) SessionView {
	st := sess.State
	atts := make([]AttachmentView, len(st.Draft.Attachments))
	for i, a := range st.Draft.Attachments {
		atts[i] = AttachmentView{Filename: a.Filename, ContentType: a.ContentType, Size: a.Size}
	}
	values := make(map[wizard.Field]string, len(st.Draft.Values))
	for k, v := range st.Draft.Values {
		values[k] = v
	}

	view := SessionView{
		ID:          sess.ID,
		Step:        s.wizard.Current(st).Step,
		StepIndex:   st.StepIndex,
		StepCount:   s.wizard.LastIndex() + 1,
		Required:    s.wizard.Required(st),
		Values:      values,
		Attachments: atts,
		Summary:     st.Summary,
		UpdatedAt:   sess.UpdatedAt,
	}
	if st.Quote != nil {
		view.Quote = quoteView(st.Quote)
	}
	return view
}

func quoteView(q *pricing.Quote) *QuoteView {
	return &QuoteView{
		Items:        toLineItemDTOs(q.Items),
		Total:        q.Total.String(),
		TotalDisplay: pricing.FormatAmount(q.Total),
		Currency:     q.Currency,
	}
}
