package rsvp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/deadline"
	"wedding-rsvp/internal/models"
)

// Status is the overall result of a submission attempt
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// Reason explains a rejection
type Reason string

const (
	ReasonDeadlineClosed   Reason = "deadline_closed"
	ReasonValidationFailed Reason = "validation_failed"
)

// Outcome is what the presentation layer renders after Submit
type Outcome struct {
	Status   Status            `json:"status"`
	Reason   Reason            `json:"reason,omitempty"`
	Messages []string          `json:"messages,omitempty"`
	Window   deadline.Window   `json:"window"`
	Records  []models.Response `json:"records,omitempty"`
	Err      error             `json:"-"`
}

// Accepted reports whether the submission was stored
func (o Outcome) Accepted() bool {
	return o.Status == StatusAccepted
}

// Message renders the outcome for the guest. Store failures stay generic.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusAccepted:
		msg := "Your response has been recorded. Thank you!"
		if notice := Notice(o.Window); notice != "" {
			msg += "\n" + notice
		}
		return msg
	case StatusRejected:
		if o.Reason == ReasonDeadlineClosed {
			return "The RSVP deadline has passed and responses are no longer accepted. Please contact the couple directly."
		}
		var b strings.Builder
		b.WriteString("Please fix the following errors:")
		for _, m := range o.Messages {
			b.WriteString("\n• ")
			b.WriteString(m)
		}
		return b.String()
	default:
		return "Your response could not be saved. Please try again."
	}
}

// Notice returns the deadline notice a caller must show for the window, if any
func Notice(w deadline.Window) string {
	switch w.State {
	case deadline.StateWarning:
		return fmt.Sprintf("The RSVP deadline ends soon: %s left.", deadline.FormatRemaining(w.Remaining))
	case deadline.StateGrace:
		return fmt.Sprintf("The RSVP deadline has passed, but responses are accepted until %s.",
			w.GraceEnd.Format("January 2, 2006 at 15:04 MST"))
	case deadline.StateClosed:
		return "The RSVP deadline has passed. New responses are no longer accepted."
	}
	return ""
}

// Appender persists a batch of records atomically and returns them as stored
type Appender interface {
	AppendBatch(ctx context.Context, records []models.Response) ([]models.Response, error)
}

// Notifier is told about accepted submissions, e.g. to send a confirmation
type Notifier interface {
	NotifyAccepted(ctx context.Context, sub Submission, out Outcome) error
}

// Config configures a Coordinator
type Config struct {
	Policy   deadline.Policy
	Menu     Menu
	Notifier Notifier
	Logger   zerolog.Logger
}

// Coordinator turns submissions into stored responses while the deadline allows it
type Coordinator struct {
	store    Appender
	policy   deadline.Policy
	menu     Menu
	notifier Notifier
	log      zerolog.Logger
}

// NewCoordinator creates a coordinator writing through store
func NewCoordinator(store Appender, cfg Config) *Coordinator {
	return &Coordinator{
		store:    store,
		policy:   cfg.Policy,
		menu:     cfg.Menu,
		notifier: cfg.Notifier,
		log:      cfg.Logger.With().Str("component", "rsvp").Logger(),
	}
}

// Window reports the submission window at now
func (c *Coordinator) Window(now time.Time) deadline.Window {
	return c.policy.Window(now)
}

// Submit checks the deadline, validates, expands and stores one submission.
// Identical submissions are stored again; there is no deduplication.
func (c *Coordinator) Submit(ctx context.Context, sub Submission, now time.Time) Outcome {
	window := c.policy.Window(now)
	logger := c.log.With().Str("contact", sub.ContactName).Str("window", string(window.State)).Logger()

	if !window.State.Accepting() {
		logger.Info().Msg("Rejected submission after deadline")
		return Outcome{Status: StatusRejected, Reason: ReasonDeadlineClosed, Window: window}
	}

	if problems := sub.Validate(c.menu); len(problems) > 0 {
		logger.Info().Strs("problems", problems).Msg("Rejected invalid submission")
		return Outcome{Status: StatusRejected, Reason: ReasonValidationFailed, Messages: problems, Window: window}
	}

	records, err := c.store.AppendBatch(ctx, sub.Records(now))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to store submission")
		return Outcome{Status: StatusFailed, Window: window, Err: err}
	}

	out := Outcome{Status: StatusAccepted, Window: window, Records: records}
	logger.Info().Int("records", len(records)).Msg("Accepted submission")

	if c.notifier != nil {
		if err := c.notifier.NotifyAccepted(ctx, sub, out); err != nil {
			logger.Warn().Err(err).Msg("Failed to send confirmation")
		}
	}
	return out
}
