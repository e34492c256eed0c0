package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/rsvp"
)

// Submitter accepts RSVP submissions
type Submitter interface {
	Submit(ctx context.Context, sub rsvp.Submission, now time.Time) rsvp.Outcome
}

// Replier sends a text reply to a phone number
type Replier interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// RSVPHandler turns chat replies into RSVP submissions
type RSVPHandler struct {
	submitter Submitter
	replier   Replier
	now       func() time.Time
	log       zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(submitter Submitter, replier Replier, logger zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		submitter: submitter,
		replier:   replier,
		now:       time.Now,
		log:       logger.With().Str("component", "handler").Logger(),
	}
}

var (
	yesWords = []string{"yes", "yep", "yeah", "accept", "attending", "coming", "✅"}
	noWords  = []string{"no", "nope", "decline", "declining", "❌"}
)

// HandleMessage processes incoming WhatsApp messages for RSVP responses
func (h *RSVPHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return nil
	}

	_, err := h.HandleText(context.Background(), msg.Info.Sender.User, msg.Info.PushName, text)
	return err
}

// HandleText submits the RSVP contained in text and replies with the outcome.
// Messages that are not an RSVP are ignored and report false.
func (h *RSVPHandler) HandleText(ctx context.Context, phoneNumber, senderName, text string) (bool, error) {
	sub, ok := ParseReply(text, senderName)
	if !ok {
		return false, nil
	}
	sub.ContactPhone = phoneNumber
	if strings.TrimSpace(sub.ContactName) == "" {
		sub.ContactName = phoneNumber
	}

	out := h.submitter.Submit(ctx, sub, h.now())
	h.log.Info().Str("phone", phoneNumber).Str("status", string(out.Status)).Msg("Handled RSVP message")

	reply := out.Message()
	if out.Accepted() && len(out.Records) > 0 && out.Records[0].GuestName() != "" {
		names := make([]string, 0, len(out.Records))
		for _, r := range out.Records {
			names = append(names, r.GuestName())
		}
		reply = fmt.Sprintf("%s\nGuests: %s", reply, strings.Join(names, ", "))
	}

	if err := h.replier.SendMessage(ctx, phoneNumber, reply); err != nil {
		return true, fmt.Errorf("failed to send reply: %w", err)
	}
	return true, nil
}

// ParseReply reads a chat RSVP.
//
//	"no, sorry"                         declines
//	"yes"                               attends alone, named after the sender
//	"yes Anna Weber (vegan), Ben Weber" attends with the listed guests
//
// A parenthesised word after a name is the guest's dietary preference.
func ParseReply(text, senderName string) (rsvp.Submission, bool) {
	text = strings.TrimSpace(text)
	first, rest := splitFirstWord(text)
	first = strings.ToLower(strings.Trim(first, ".,!:;"))

	sub := rsvp.Submission{ContactName: strings.TrimSpace(senderName)}
	switch {
	case matchesAny(first, noWords...):
		sub.Attending = "No"
		return sub, true
	case matchesAny(first, yesWords...):
		sub.Attending = "Yes"
	default:
		return rsvp.Submission{}, false
	}

	rest = strings.TrimLeft(rest, ".,!:; ")
	if rest == "" {
		sub.Guests = []rsvp.Guest{parseGuest(senderName)}
		return sub, true
	}

	for _, part := range strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == '\n' || r == ';' }) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sub.Guests = append(sub.Guests, parseGuest(part))
	}
	return sub, true
}

func parseGuest(s string) rsvp.Guest {
	var g rsvp.Guest
	if open := strings.Index(s, "("); open >= 0 {
		if end := strings.Index(s[open:], ")"); end > 0 {
			g.Dietary = strings.TrimSpace(s[open+1 : open+end])
			s = s[:open] + s[open+end+1:]
		}
	}

	words := strings.Fields(s)
	switch len(words) {
	case 0:
	case 1:
		g.FirstName = words[0]
	default:
		g.FirstName = strings.Join(words[:len(words)-1], " ")
		g.LastName = words[len(words)-1]
	}
	return g
}

func splitFirstWord(s string) (string, string) {
	if i := strings.IndexAny(s, " \t\n,"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// matchesAny reports whether word is one of keywords
func matchesAny(word string, keywords ...string) bool {
	for _, keyword := range keywords {
		if word == keyword {
			return true
		}
	}
	return false
}
