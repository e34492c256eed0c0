package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/whatsapp"
)

// NewInviteCommand sends a WhatsApp invitation that guests answer by chat.
func NewInviteCommand(opts *RootOptions) *cobra.Command {
	var name, phone string

	cmd := &cobra.Command{
		Use:     "invite",
		Short:   "Send a WhatsApp invitation",
		Example: `  rsvp invite --name "Carl Braun" --phone "+49 170 1234567"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || phone == "" {
				return errors.New("--name and --phone are required")
			}
			ctx := commandContext(cmd)

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			w := a.cfg.Policy().Window(opts.now())
			if !w.State.Accepting() {
				return errors.New("the RSVP deadline has passed; not sending an invitation")
			}

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

			fmt.Fprintf(cmd.OutOrStdout(), "Sending invitation to %s (%s)...\n", name, phone)
			if err := svc.SendMessage(ctx, phone, whatsapp.InvitationText(a.event(), name, w)); err != nil {
				return fmt.Errorf("failed to send invitation: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Invitation sent successfully!")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "guest name")
	cmd.Flags().StringVar(&phone, "phone", "", "guest phone number")
	return cmd
}
