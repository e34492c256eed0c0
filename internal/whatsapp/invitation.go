package whatsapp

import (
	"fmt"

	"wedding-rsvp/internal/deadline"
)

// InvitationText renders the invitation asking for a chat reply the RSVP handler understands
func InvitationText(event Event, name string, w deadline.Window) string {
	msg := fmt.Sprintf(
		"🎉 *Wedding Invitation*\n\n"+
			"Dear %s,\n\n"+
			"You are cordially invited to celebrate the wedding of\n\n"+
			"*%s*\n\n"+
			"📅 Date: %s\n"+
			"📍 Location: %s\n\n"+
			"Reply with:\n"+
			"✅ *YES* followed by the names of everyone coming, e.g. \"yes Anna Weber, Ben Weber (vegan)\"\n"+
			"❌ *NO* to decline",
		name, event.Couple, event.Date, event.Location,
	)

	switch w.State {
	case deadline.StateOpen, deadline.StateWarning:
		if !w.Deadline.IsZero() {
			msg += fmt.Sprintf("\n\n⏰ Please reply by %s.", w.Deadline.Format("January 2, 2006 at 15:04 MST"))
		}
	case deadline.StateGrace:
		msg += fmt.Sprintf("\n\n⏰ Please reply by %s.", w.GraceEnd.Format("January 2, 2006 at 15:04 MST"))
	}
	return msg
}
