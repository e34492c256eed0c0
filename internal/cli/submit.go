package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/whatsapp"
)

// submitFlags mirrors the fields of the RSVP form
type submitFlags struct {
	name      string
	email     string
	phone     string
	attending string
	comments  string
	guests    []string
	fields    []string
	at        string
	notify    bool
}

// NewSubmitCommand records one RSVP submission.
func NewSubmitCommand(opts *RootOptions) *cobra.Command {
	var f submitFlags

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an RSVP",
		Long: `Submit an RSVP the way the guest form would.

Guests are given as --guest "First|Last|Dietary|Notes|Starter|Main|Dessert";
trailing parts may be omitted. Raw form fields can be passed with
--field key=value, e.g. --field guest_first_name_0=Anna.`,
		Example: `  rsvp submit --name "Anna Weber" --attending yes --guest "Anna|Weber|Vegan"
  rsvp submit --name "Carl Braun" --attending no --comments "Sorry!"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := f.submission()
			if err != nil {
				return err
			}
			now, err := opts.instant(f.at)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)

			a, err := opts.openWritable(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var notifier rsvp.Notifier
			if f.notify {
				svc, err := whatsapp.NewService(ctx, &whatsapp.Config{
					DataDir:     a.cfg.DataDir,
					CountryCode: a.cfg.WhatsAppCountryCode,
					Logger:      a.log,
				})
				if err != nil {
					return fmt.Errorf("failed to create WhatsApp service: %w", err)
				}
				if err := svc.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to WhatsApp: %w", err)
				}
				defer svc.Disconnect()
				notifier = whatsapp.NewNotifier(svc, a.event())
			}

			out := a.coordinator(notifier).Submit(ctx, sub, now)

			if opts.Format == "json" {
				if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), out.Message())
			}

			if !out.Accepted() {
				return fmt.Errorf("submission %s", out.Status)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "contact name")
	flags.StringVar(&f.email, "email", "", "contact email")
	flags.StringVar(&f.phone, "phone", "", "contact phone")
	flags.StringVar(&f.attending, "attending", "", "Yes or No")
	flags.StringVar(&f.comments, "comments", "", "comments for the couple")
	flags.StringArrayVar(&f.guests, "guest", nil, "guest as First|Last|Dietary|Notes|Starter|Main|Dessert (repeatable)")
	flags.StringArrayVar(&f.fields, "field", nil, "raw form field key=value (repeatable)")
	flags.StringVar(&f.at, "at", "", "submit as of this RFC 3339 time instead of now")
	flags.BoolVar(&f.notify, "notify", false, "send a WhatsApp confirmation to --phone")

	return cmd
}

// submission merges raw form fields with the named flags, flags winning
func (f submitFlags) submission() (rsvp.Submission, error) {
	form := make(map[string]string, len(f.fields))
	for _, kv := range f.fields {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return rsvp.Submission{}, fmt.Errorf("invalid --field %q: expected key=value", kv)
		}
		form[strings.TrimSpace(key)] = value
	}
	sub := rsvp.ParseForm(form)

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&sub.ContactName, f.name)
	set(&sub.ContactEmail, f.email)
	set(&sub.ContactPhone, f.phone)
	set(&sub.Attending, f.attending)
	set(&sub.Comments, f.comments)

	for _, g := range f.guests {
		sub.Guests = append(sub.Guests, parseGuestFlag(g))
	}
	return sub, nil
}

func parseGuestFlag(s string) rsvp.Guest {
	parts := strings.Split(s, "|")
	part := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return rsvp.Guest{
		FirstName:    part(0),
		LastName:     part(1),
		Dietary:      part(2),
		DietaryNotes: part(3),
		Starter:      part(4),
		Main:         part(5),
		Dessert:      part(6),
	}
}
