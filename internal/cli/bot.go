package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/whatsapp"
)

// NewBotCommand runs the WhatsApp bot that turns chat replies into RSVPs.
func NewBotCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the WhatsApp RSVP bot",
		Long: `Connect to WhatsApp and record RSVPs sent as chat messages.

On first start a QR code is printed; scan it from WhatsApp under
Settings > Linked Devices. The session is kept in the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := opts.openWritable(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := whatsapp.NewService(ctx, &whatsapp.Config{
				DataDir:     a.cfg.DataDir,
				CountryCode: a.cfg.WhatsAppCountryCode,
				Logger:      a.log,
			})
			if err != nil {
				return fmt.Errorf("failed to create WhatsApp service: %w", err)
			}

			rsvpHandler := handler.NewRSVPHandler(a.coordinator(nil), svc, a.log)
			svc.SetMessageHandler(rsvpHandler.HandleMessage)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "🎉 Wedding RSVP Bot")
			fmt.Fprintln(out, "===================")
			fmt.Fprintln(out, "Connecting to WhatsApp...")
			if err := svc.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to WhatsApp: %w", err)
			}

			fmt.Fprintln(out, "\n✅ Connected to WhatsApp!")
			fmt.Fprintln(out, "The bot is now listening for RSVP responses.")

			// Wait for interrupt signal
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(c)
			select {
			case <-c:
			case <-ctx.Done():
			}

			fmt.Fprintln(out, "\nShutting down...")
			svc.Disconnect()
			fmt.Fprintln(out, "Goodbye! 👋")
			return nil
		},
	}
}
