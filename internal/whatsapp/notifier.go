package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
)

// Sender delivers a text message to a phone number
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Event is the text used in confirmations
type Event struct {
	Couple   string
	Date     string
	Location string
}

// Notifier sends a WhatsApp confirmation for accepted submissions that carry a phone number
type Notifier struct {
	sender Sender
	event  Event
}

// NewNotifier creates a Notifier sending through sender
func NewNotifier(sender Sender, event Event) *Notifier {
	return &Notifier{sender: sender, event: event}
}

func (n *Notifier) NotifyAccepted(ctx context.Context, sub rsvp.Submission, out rsvp.Outcome) error {
	if strings.TrimSpace(sub.ContactPhone) == "" {
		return nil
	}
	return n.sender.SendMessage(ctx, sub.ContactPhone, ConfirmationText(n.event, out))
}

// ConfirmationText renders the confirmation for an accepted outcome
func ConfirmationText(event Event, out rsvp.Outcome) string {
	guests := 0
	for _, r := range out.Records {
		if r.Attending == models.AttendingYes {
			guests++
		}
	}

	if guests == 0 {
		return fmt.Sprintf(
			"Thank you for letting us know. We're sorry you won't be able to join us for the wedding of %s.\n\n"+
				"We'll miss you! 💕",
			event.Couple,
		)
	}

	noun := "guest"
	if guests > 1 {
		noun = "guests"
	}
	msg := fmt.Sprintf(
		"🎉 Wonderful! We're so excited to celebrate with you!\n\n"+
			"We've confirmed %d %s for the wedding of %s on %s at %s.\n\n"+
			"See you there! 💕",
		guests, noun, event.Couple, event.Date, event.Location,
	)
	if notice := rsvp.Notice(out.Window); notice != "" {
		msg += "\n\n" + notice
	}
	return msg
}
