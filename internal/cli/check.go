package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand verifies the configuration and that the response store takes writes.
func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration and that the response store is writable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := opts.openWritable(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.store.ReadAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to read responses: %w", err)
			}

			result := map[string]any{
				"backend":  a.cfg.StoreBackend,
				"data_dir": a.cfg.DataDir,
				"records":  len(records),
				"deadline": a.cfg.Policy().Enabled(),
				"writable": true,
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s store in %s is writable (%d records)\n",
				a.cfg.StoreBackend, a.cfg.DataDir, len(records))
			return nil
		},
	}
}
