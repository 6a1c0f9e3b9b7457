// Package reconciler keeps each visitor's view of the activities consistent
// with the outcome of their actions against the activities API.
//
// Every operation runs in two steps: the API call, made without holding the
// visitor's view, resolves into a domain.Outcome; Apply then folds that
// outcome into the view inside a single atomic store update. Requests of one
// visitor are not mutually excluded, so two in-flight unregisters for the
// same entry both reach the API; the second finds the entry gone and
// reloads the view.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"activities-web/internal/domain"
	"activities-web/internal/service"
	apperrors "activities-web/pkg/errors"
	"activities-web/pkg/logger"
)

// User-facing failure texts.
const (
	ReasonLoadFailed          = "Failed to load activities. Please try again later."
	ReasonSignupRejected      = "An error occurred"
	ReasonSignupFailed        = "Failed to sign up. Please try again."
	ReasonUnregisterRejected  = "Failed to unregister"
	ReasonUnregisterFailed    = "Failed to unregister. Please try again."
	ReasonMissingSignupFields = "Please select an activity and enter an email."
)

// ViewStore is the storage the reconciler folds outcomes into.
type ViewStore interface {
	Load(ctx context.Context, sessionID string) (*domain.ViewState, error)
	Update(ctx context.Context, sessionID string, fn func(*domain.ViewState) error) (*domain.ViewState, error)
}

// Reconciler is the view state reconciler.
type Reconciler struct {
	api       service.ActivitiesAPI
	views     ViewStore
	logger    *logger.Logger
	hideAfter time.Duration
	now       func() time.Time
	newID     func() string
}

// Option customises a Reconciler.
type Option func(*Reconciler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithIDGenerator replaces the UUID generator used for entry identities.
func WithIDGenerator(newID func() string) Option {
	return func(r *Reconciler) { r.newID = newID }
}

// New creates a reconciler. hideAfter is the banner display interval.
func New(api service.ActivitiesAPI, views ViewStore, hideAfter time.Duration, log *logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:       api,
		views:     views,
		logger:    log.Named("reconciler"),
		hideAfter: hideAfter,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the reconciler's clock reading; renderers use it to decide
// banner visibility.
func (r *Reconciler) Now() time.Time {
	return r.now()
}

// View returns the view for a page render. A view committed by a form post
// is served once as stored so its patch survives the redirect. Any other
// render is a fresh page: the banner and form are cleared and the
// activities are loaded again.
func (r *Reconciler) View(ctx context.Context, sessionID string) (*domain.ViewState, error) {
	var patched bool
	view, err := r.views.Update(ctx, sessionID, func(v *domain.ViewState) error {
		patched = v.Patched && v.Loaded
		v.Patched = false
		if !patched {
			v.Banner = domain.Banner{}
			v.Form = domain.FormState{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load view: %w", err)
	}
	if patched {
		return view, nil
	}
	return r.LoadAndRender(ctx, sessionID)
}

// Current returns the stored view without consuming a pending patch. A
// session that has never loaded gets its first load.
func (r *Reconciler) Current(ctx context.Context, sessionID string) (*domain.ViewState, error) {
	view, err := r.views.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load view: %w", err)
	}
	if view.Loaded {
		return view, nil
	}
	return r.LoadAndRender(ctx, sessionID)
}

// LoadAndRender fetches the full activity map and rebuilds the view from it.
// On failure the view is emptied and shows the load error.
func (r *Reconciler) LoadAndRender(ctx context.Context, sessionID string) (*domain.ViewState, error) {
	return r.reload(ctx, sessionID, false)
}

// Refresh is LoadAndRender on behalf of a form post.
func (r *Reconciler) Refresh(ctx context.Context, sessionID string) (*domain.ViewState, error) {
	return r.reload(ctx, sessionID, true)
}

// Signup registers email for activity and patches the matching card. When
// no card matches, the whole view is reloaded instead. Missing fields never
// reach the API.
func (r *Reconciler) Signup(ctx context.Context, sessionID, activity, email string) (*domain.ViewState, error) {
	outcome := r.signup(ctx, activity, email)
	view, reload, err := r.commit(ctx, sessionID, outcome, true)
	if err != nil {
		return nil, err
	}
	if reload {
		r.logger.WithField("activity", activity).Info("Activity card not present, reloading view")
		return r.reload(ctx, sessionID, true)
	}
	return view, nil
}

// Unregister removes email from activity and drops the entry identified by
// entryID from the view. When the entry is no longer in the view, the view
// is reloaded so it matches the server.
func (r *Reconciler) Unregister(ctx context.Context, sessionID, entryID, activity, email string) (*domain.ViewState, error) {
	outcome := r.unregister(ctx, activity, email)
	outcome.EntryID = entryID
	view, reload, err := r.commit(ctx, sessionID, outcome, true)
	if err != nil {
		return nil, err
	}
	if reload {
		r.logger.WithField("entry_id", entryID).Info("Participant entry not present, reloading view")
		return r.reload(ctx, sessionID, true)
	}
	return view, nil
}

// Apply folds outcome into view. It reports true when the view could not be
// patched locally and must be reloaded.
func (r *Reconciler) Apply(view *domain.ViewState, outcome domain.Outcome) bool {
	view.UpdatedAt = r.now()

	switch outcome.Command {
	case domain.CommandLoad:
		if outcome.OK {
			view.Replace(outcome.Catalog, r.newID)
		} else {
			view.Fail()
		}
		return false

	case domain.CommandSignup:
		if !outcome.OK {
			view.Form = domain.FormState{Activity: outcome.Activity, Email: outcome.Email}
			r.show(view, outcome.Reason, domain.MessageError)
			return false
		}
		r.show(view, outcome.Message, domain.MessageSuccess)
		view.Form = domain.FormState{}

		card := view.Find(outcome.Activity)
		if card == nil {
			return true
		}
		card.Append(domain.Participant{EntryID: r.newID(), Email: outcome.Email})
		return false

	case domain.CommandUnregister:
		if !outcome.OK {
			r.show(view, outcome.Reason, domain.MessageError)
			return false
		}
		r.show(view, outcome.Message, domain.MessageSuccess)
		return view.RemoveEntry(outcome.EntryID) == nil
	}

	r.logger.WithField("command", outcome.Command).Warn("Ignoring outcome of unknown command")
	return false
}

func (r *Reconciler) reload(ctx context.Context, sessionID string, patched bool) (*domain.ViewState, error) {
	outcome := r.load(ctx)
	view, _, err := r.commit(ctx, sessionID, outcome, patched)
	return view, err
}

// commit applies outcome to the stored view in one atomic update. patched
// marks the view as committed by a form post.
func (r *Reconciler) commit(ctx context.Context, sessionID string, outcome domain.Outcome, patched bool) (*domain.ViewState, bool, error) {
	var reload bool
	view, err := r.views.Update(ctx, sessionID, func(v *domain.ViewState) error {
		reload = r.Apply(v, outcome)
		if patched {
			v.Patched = true
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("command", outcome.Command).Error("Failed to store view")
		return nil, false, fmt.Errorf("failed to store view: %w", err)
	}
	return view, reload, nil
}

func (r *Reconciler) show(view *domain.ViewState, text string, kind domain.MessageKind) {
	view.Banner.HideAfter = r.hideAfter
	view.Banner.Show(text, kind, r.now())
}

func (r *Reconciler) load(ctx context.Context) domain.Outcome {
	catalog, err := r.api.ListActivities(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Error fetching activities")
		return domain.Failed(domain.CommandLoad, ReasonLoadFailed)
	}
	outcome := domain.Succeeded(domain.CommandLoad, "")
	outcome.Catalog = catalog
	return outcome
}

func (r *Reconciler) signup(ctx context.Context, activity, email string) domain.Outcome {
	var message string
	err := requireFields(activity, email, ReasonMissingSignupFields)
	if err == nil {
		message, err = r.api.Signup(ctx, activity, email)
	}

	var outcome domain.Outcome
	if err != nil {
		outcome = domain.Failed(domain.CommandSignup, r.reason(err, ReasonSignupRejected, ReasonSignupFailed, "Error signing up"))
	} else {
		outcome = domain.Succeeded(domain.CommandSignup, message)
	}
	outcome.Activity = activity
	outcome.Email = email
	return outcome
}

func (r *Reconciler) unregister(ctx context.Context, activity, email string) domain.Outcome {
	var message string
	err := requireFields(activity, email, ReasonUnregisterRejected)
	if err == nil {
		message, err = r.api.Unregister(ctx, activity, email)
	}

	var outcome domain.Outcome
	if err != nil {
		outcome = domain.Failed(domain.CommandUnregister, r.reason(err, ReasonUnregisterRejected, ReasonUnregisterFailed, "Error unregistering"))
	} else {
		outcome = domain.Succeeded(domain.CommandUnregister, message)
	}
	outcome.Activity = activity
	outcome.Email = email
	return outcome
}

func requireFields(activity, email, reason string) error {
	if activity == "" || email == "" {
		return apperrors.NewValidationError(reason)
	}
	return nil
}

// reason picks the banner text for a failed command: the server's detail or
// the validation message verbatim, the rejection fallback when there is
// none, or the generic text for network and parse failures, which are also
// logged.
func (r *Reconciler) reason(err error, rejectedFallback, failed, logMessage string) string {
	if rejected, ok := apperrors.IsRejected(err); ok {
		if rejected.Message != "" {
			return rejected.Message
		}
		return rejectedFallback
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation {
		return appErr.Message
	}
	r.logger.WithError(err).WithField("error_type", apperrors.TypeOf(err)).Error(logMessage)
	return failed
}
