package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/report"
	"wedding-rsvp/internal/storage"
)

// NewEditCommand groups the operator edit commands.
func NewEditCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit or delete stored responses",
		Long: `Edit or delete stored responses by row number (see "rsvp list").

Edits are applied against a snapshot of the whole response set. If another
submission lands in between, the edit is refused and nothing is written.`,
	}

	cmd.AddCommand(newEditSetCommand(opts))
	cmd.AddCommand(newEditDeleteCommand(opts))
	return cmd
}

func newEditSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "set ROW FIELD=VALUE...",
		Short:   "Change fields of one row",
		Example: `  rsvp edit set 3 main_choice=Fish dietary_notes="no nuts"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}

			fields := make(map[string]string, len(args)-1)
			for _, kv := range args[1:] {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid assignment %q: expected FIELD=VALUE", kv)
				}
				fields[key] = value
			}

			return applyEdits(cmd, opts, report.Edits{Set: map[int]map[string]string{row: fields}})
		},
	}
}

func newEditDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ROW...",
		Short: "Delete rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make(map[int]bool, len(args))
			for _, arg := range args {
				row, err := parseRow(arg)
				if err != nil {
					return err
				}
				rows[row] = true
			}

			return applyEdits(cmd, opts, report.Edits{Delete: rows})
		},
	}
}

func applyEdits(cmd *cobra.Command, opts *RootOptions, edits report.Edits) error {
	ctx := commandContext(cmd)

	a, err := opts.openWritable(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read responses: %w", err)
	}

	records, err := report.ApplyEdits(snap.Records, edits)
	if err != nil {
		return err
	}

	if err := a.store.ReplaceSnapshot(ctx, snap.Token, records); err != nil {
		if errors.Is(err, storage.ErrStaleSnapshot) {
			return fmt.Errorf("responses changed while editing, nothing was saved; list them again and retry: %w", err)
		}
		return fmt.Errorf("failed to save responses: %w", err)
	}

	a.log.Info().
		Int("before", len(snap.Records)).
		Int("after", len(records)).
		Msg("Replaced responses")
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows (was %d).\n", len(records), len(snap.Records))
	return nil
}

func parseRow(s string) (int, error) {
	row, err := strconv.Atoi(s)
	if err != nil || row < 0 {
		return 0, fmt.Errorf("invalid row %q: expected a row number from \"rsvp list\"", s)
	}
	return row, nil
}
