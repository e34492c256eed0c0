package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/deadline"
	"wedding-rsvp/internal/rsvp"
)

// statusOutput is the JSON shape of the status command
type statusOutput struct {
	State     deadline.State `json:"state"`
	Deadline  *time.Time     `json:"deadline,omitempty"`
	Remaining string         `json:"remaining,omitempty"`
	GraceEnd  *time.Time     `json:"grace_end,omitempty"`
	Notice    string         `json:"notice,omitempty"`
}

// NewStatusCommand shows the current submission window.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether RSVPs are currently accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := opts.instant(at)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			w := cfg.Policy().Window(now)
			out := statusOutput{State: w.State, Notice: rsvp.Notice(w)}
			if !w.Deadline.IsZero() {
				d := w.Deadline.In(cfg.Location())
				out.Deadline = &d
			}
			if w.Remaining > 0 {
				out.Remaining = deadline.FormatRemaining(w.Remaining)
			}
			if !w.GraceEnd.IsZero() {
				g := w.GraceEnd.In(cfg.Location())
				out.GraceEnd = &g
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			o := cmd.OutOrStdout()
			fmt.Fprintf(o, "State: %s\n", out.State)
			if out.Deadline == nil {
				fmt.Fprintln(o, "No deadline configured; responses are always accepted.")
				return nil
			}
			fmt.Fprintf(o, "Deadline: %s\n", out.Deadline.Format("January 2, 2006 at 15:04 MST"))
			if out.Remaining != "" {
				fmt.Fprintf(o, "Remaining: %s\n", out.Remaining)
			}
			if out.GraceEnd != nil {
				fmt.Fprintf(o, "Grace period ends: %s\n", out.GraceEnd.Format("January 2, 2006 at 15:04 MST"))
			}
			if out.Notice != "" {
				fmt.Fprintln(o, out.Notice)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluate at this RFC 3339 time instead of now")
	return cmd
}

// instant parses an --at flag, defaulting to now
func (opts *RootOptions) instant(at string) (time.Time, error) {
	if at == "" {
		return opts.now(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", at, err)
	}
	return t, nil
}
