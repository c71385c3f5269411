package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/binwin/binwin-service/internal/client"
	"github.com/binwin/binwin-service/internal/models"
	"github.com/binwin/binwin-service/internal/session"
	"github.com/sirupsen/logrus"
)

// DefaultRatePerKg is the display rate substituted when a proposal
// carries no price. Same default the mobile app always applied.
const DefaultRatePerKg = 10.0

// Exact texts the screens showed on rejected input.
const (
	acceptValidationMsg  = "Please enter mobile number and waste quantity."
	declineValidationMsg = "Please provide a reason and select a new collection date."
)

// State is the position of the accept/decline interaction for the
// currently selected proposal.
type State int

const (
	StateIdle State = iota
	StateAcceptOpen
	StateDeclineOpen
	StateSubmitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcceptOpen:
		return "accept-open"
	case StateDeclineOpen:
		return "decline-open"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ValidationError is rejected user input; no request is sent.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

var (
	// ErrNoSelection means no proposal modal is open.
	ErrNoSelection = errors.New("no proposal selected")
	// ErrUnknownSchedule means the id is not in the fetched list.
	ErrUnknownSchedule = errors.New("schedule not in list")
	// ErrNotCandidate means the chosen date is not one of the offered ones.
	ErrNotCandidate = errors.New("date is not an offered collection date")
)

// AcceptanceInput is the transient accept-modal state. It lives only
// until submission; the reimbursement is derived, never persisted.
type AcceptanceInput struct {
	Mobile        string
	WasteQuantity string
	Reimbursement float64
}

// DeclineInput is the transient decline-modal state.
type DeclineInput struct {
	Reason       string
	SelectedDate string
}

// IdentitySource yields the logged-in identity.
type IdentitySource interface {
	Identity() (session.Identity, error)
}

// Workflow drives the user-side pickup scheduling flow: a list of
// pending proposals and one accept or decline interaction at a time.
type Workflow struct {
	api *client.Client
	ids IdentitySource
	log *logrus.Logger

	state      State
	schedules  []models.ScheduleProposal
	selected   *models.ScheduleProposal
	accept     AcceptanceInput
	decline    DeclineInput
	candidates []string

	now func() time.Time
}

// New creates a workflow over the given API client and identity source.
func New(api *client.Client, ids IdentitySource, log *logrus.Logger) *Workflow {
	return &Workflow{api: api, ids: ids, log: log, now: time.Now}
}

func (w *Workflow) State() State                         { return w.state }
func (w *Workflow) Schedules() []models.ScheduleProposal { return w.schedules }
func (w *Workflow) Selected() *models.ScheduleProposal   { return w.selected }
func (w *Workflow) Accept() AcceptanceInput              { return w.accept }
func (w *Workflow) Decline() DeclineInput                { return w.decline }
func (w *Workflow) Candidates() []string                 { return w.candidates }

// Refresh reloads the pending proposal list. A missing identity or a
// failed fetch is logged and leaves the current list untouched; the
// screen simply keeps showing what it had.
func (w *Workflow) Refresh(ctx context.Context) error {
	id, err := w.ids.Identity()
	if err != nil {
		if errors.Is(err, session.ErrNoIdentity) {
			w.log.Warn("No stored identity, schedule list left empty")
			return nil
		}
		w.log.Errorf("Failed to read identity: %v", err)
		return nil
	}

	schedules, err := w.api.UserSchedules(ctx, id.UserID)
	if err != nil {
		w.log.Errorf("Failed to fetch schedules for user %d: %v", id.UserID, err)
		return nil
	}
	w.schedules = schedules
	return nil
}

// RateFor returns the effective rate per kilogram for a proposal,
// substituting DefaultRatePerKg when the proposal has no price.
func RateFor(p *models.ScheduleProposal) float64 {
	if p == nil || p.Price == 0 {
		return DefaultRatePerKg
	}
	return p.Price
}

// OpenAccept selects a proposal and opens the accept interaction.
func (w *Workflow) OpenAccept(scheduleID int64) error {
	p, err := w.find(scheduleID)
	if err != nil {
		return err
	}
	w.selected = p
	w.state = StateAcceptOpen
	w.recompute()
	return nil
}

// SetMobile updates the contact number in the accept interaction.
func (w *Workflow) SetMobile(v string) {
	w.accept.Mobile = v
}

// SetWasteQuantity updates the entered quantity and eagerly
// recomputes the reimbursement, exactly as the screen did on every
// keystroke. Unparsable input counts as zero kilograms.
func (w *Workflow) SetWasteQuantity(v string) {
	w.accept.WasteQuantity = v
	w.recompute()
}

func (w *Workflow) recompute() {
	qty, err := strconv.ParseFloat(w.accept.WasteQuantity, 64)
	if err != nil {
		qty = 0
	}
	w.accept.Reimbursement = qty * RateFor(w.selected)
}

// SubmitAccept validates the input and posts the acceptance. The
// interaction closes no matter how the request ends; only validation
// failures keep it open. On success the confirmation text is
// returned; the schedule list is not refreshed here.
func (w *Workflow) SubmitAccept(ctx context.Context) (string, error) {
	if w.state != StateAcceptOpen || w.selected == nil {
		return "", ErrNoSelection
	}
	if w.accept.Mobile == "" || w.accept.WasteQuantity == "" {
		return "", &ValidationError{msg: acceptValidationMsg}
	}

	id, err := w.ids.Identity()
	if err != nil {
		return "", fmt.Errorf("cannot accept without a logged-in user: %w", err)
	}

	confirmation := fmt.Sprintf("Your collection is scheduled. You will receive ₹%.2f.", w.accept.Reimbursement)
	submitErr := w.api.AcceptSchedule(ctx, client.AcceptRequest{
		UserID:     id.UserID,
		CompanyID:  w.selected.CompanyID,
		ScheduleID: w.selected.ScheduleID,
	})

	// The modal closes regardless of the request outcome.
	scheduleID := w.selected.ScheduleID
	w.state = StateSubmitted
	w.selected = nil
	w.accept = AcceptanceInput{}

	if submitErr != nil {
		w.log.Errorf("Accept failed for schedule %d: %v", scheduleID, submitErr)
		return "", submitErr
	}
	w.log.Infof("Schedule %d accepted", scheduleID)
	return confirmation, nil
}

// NextCollectionDates generates the three reschedule candidates: the
// proposal's date moved forward one, two and three calendar months,
// with standard date rollover. An unparsable date falls back to now.
func NextCollectionDates(base string, now time.Time) []string {
	d, err := time.Parse("2006-01-02", base)
	if err != nil {
		d = now
	}
	dates := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		dates = append(dates, d.AddDate(0, i, 0).Format("2006-01-02"))
	}
	return dates
}

// OpenDecline selects a proposal, generates the reschedule
// candidates and opens the decline interaction.
func (w *Workflow) OpenDecline(scheduleID int64) error {
	p, err := w.find(scheduleID)
	if err != nil {
		return err
	}
	w.selected = p
	w.candidates = NextCollectionDates(p.Date, w.now())
	w.state = StateDeclineOpen
	return nil
}

// SetReason updates the free-text decline reason.
func (w *Workflow) SetReason(v string) {
	w.decline.Reason = v
}

// SelectDate picks one of the offered reschedule candidates.
func (w *Workflow) SelectDate(date string) error {
	for _, c := range w.candidates {
		if c == date {
			w.decline.SelectedDate = date
			return nil
		}
	}
	return ErrNotCandidate
}

// SubmitDecline validates the decline input and closes the
// interaction with a local confirmation. The original app never sent
// this decision to the backend and that behavior is kept: nothing
// leaves the device. DeclineRemotely is the corrected variant.
func (w *Workflow) SubmitDecline() (string, error) {
	if w.state != StateDeclineOpen || w.selected == nil {
		return "", ErrNoSelection
	}
	if w.decline.Reason == "" || w.decline.SelectedDate == "" {
		return "", &ValidationError{msg: declineValidationMsg}
	}

	confirmation := fmt.Sprintf("You have rescheduled to %s. We will notify you on that date.", w.decline.SelectedDate)
	w.log.Infof("Schedule %d declined locally: %s (requested %s)",
		w.selected.ScheduleID, w.decline.Reason, w.decline.SelectedDate)

	w.state = StateSubmitted
	w.selected = nil
	w.decline = DeclineInput{}
	w.candidates = nil
	return confirmation, nil
}

// DeclineRemotely behaves like SubmitDecline but also persists the
// rejection through the backend, using the same contract shape as
// acceptance.
func (w *Workflow) DeclineRemotely(ctx context.Context) (string, error) {
	if w.state != StateDeclineOpen || w.selected == nil {
		return "", ErrNoSelection
	}
	if w.decline.Reason == "" || w.decline.SelectedDate == "" {
		return "", &ValidationError{msg: declineValidationMsg}
	}

	id, err := w.ids.Identity()
	if err != nil {
		return "", fmt.Errorf("cannot decline without a logged-in user: %w", err)
	}

	confirmation := fmt.Sprintf("You have rescheduled to %s. We will notify you on that date.", w.decline.SelectedDate)
	submitErr := w.api.DeclineSchedule(ctx, client.DeclineRequest{
		UserID:     id.UserID,
		ScheduleID: w.selected.ScheduleID,
		Reason:     w.decline.Reason,
		NewDate:    w.decline.SelectedDate,
	})

	scheduleID := w.selected.ScheduleID
	w.state = StateSubmitted
	w.selected = nil
	w.decline = DeclineInput{}
	w.candidates = nil

	if submitErr != nil {
		w.log.Errorf("Decline failed for schedule %d: %v", scheduleID, submitErr)
		return "", submitErr
	}
	w.log.Infof("Schedule %d declined", scheduleID)
	return confirmation, nil
}

// Cancel abandons the open interaction. Selection and candidates are
// cleared; the typed input fields survive, as they did on screen.
func (w *Workflow) Cancel() {
	if w.state != StateAcceptOpen && w.state != StateDeclineOpen {
		return
	}
	w.state = StateCancelled
	w.selected = nil
	w.candidates = nil
}

func (w *Workflow) find(scheduleID int64) (*models.ScheduleProposal, error) {
	if w.state == StateAcceptOpen || w.state == StateDeclineOpen {
		return nil, fmt.Errorf("another proposal is already open")
	}
	for i := range w.schedules {
		if w.schedules[i].ScheduleID == scheduleID {
			p := w.schedules[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownSchedule, scheduleID)
}
