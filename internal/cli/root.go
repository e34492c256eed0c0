package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// test hooks
	loadConfig func() (*config.Config, error)
	now        func() time.Time
	logOut     io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the RSVP CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		loadConfig: config.LoadConfig,
		now:        time.Now,
		logOut:     os.Stderr,
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rsvp",
		Short:         "Wedding RSVP collection",
		Long:          "Collects guest RSVP responses within the configured deadline and lets the operator review and edit them.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewBotCommand(opts))
	cmd.AddCommand(NewInviteCommand(opts))

	return cmd
}

// app bundles what a command needs after configuration is loaded
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *storage.Store
}

func (opts *RootOptions) open() (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Level()
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: opts.logOut, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	store, err := storage.Open(cfg.StoreBackend, cfg.DataDir, storage.Options{
		LockTimeout:     cfg.LockTimeout,
		TolerateCorrupt: cfg.TolerateCorrupt,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: logger, store: store}, nil
}

// openWritable opens the app and refuses to continue if the store cannot take writes
func (opts *RootOptions) openWritable(ctx context.Context) (*app, error) {
	a, err := opts.open()
	if err != nil {
		return nil, err
	}
	if err := a.store.CheckWritable(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("response store is not writable: %w", err)
	}
	return a, nil
}

func (a *app) coordinator(notifier rsvp.Notifier) *rsvp.Coordinator {
	return rsvp.NewCoordinator(a.store, rsvp.Config{
		Policy:   a.cfg.Policy(),
		Menu:     a.cfg.Menu(),
		Notifier: notifier,
		Logger:   a.log,
	})
}

func (a *app) event() whatsapp.Event {
	return whatsapp.Event{
		Couple:   a.cfg.WeddingCouple,
		Date:     a.cfg.WeddingDate,
		Location: a.cfg.WeddingLocation,
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close store")
	}
}
