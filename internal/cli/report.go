package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/report"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// NewListCommand lists stored responses with their row numbers.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var (
		search        string
		attendingOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored responses",
		Long:  "List stored responses. Row numbers refer to the full response set and are what the edit commands take.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.store.ReadAll(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to read responses: %w", err)
			}

			rows := selectRows(records, search, attendingOnly)
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			writeResponsesText(cmd.OutOrStdout(), rows, len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "filter by contact or guest name")
	cmd.Flags().BoolVar(&attendingOnly, "attending-only", false, "only show attending rows")
	return cmd
}

// selectRows filters records while keeping their index in the full set
func selectRows(records []models.Response, search string, attendingOnly bool) []indexedResponse {
	term := strings.ToLower(strings.TrimSpace(search))
	rows := make([]indexedResponse, 0, len(records))
	for i, r := range records {
		if attendingOnly && r.Attending != models.AttendingYes {
			continue
		}
		if term != "" && len(report.Filter([]models.Response{r}, term)) == 0 {
			continue
		}
		rows = append(rows, indexedResponse{Row: i, Response: r})
	}
	return rows
}

// NewSummaryCommand prints the dashboard summary.
func NewSummaryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show response totals, dietary and menu counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.store.ReadAll(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to read responses: %w", err)
			}

			summary := report.Summarize(records)
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			writeSummaryText(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func writeSummaryText(w io.Writer, s report.Summary) {
	fmt.Fprintln(w, "📊 RSVP Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Total responses: %d\n", s.TotalResponses)
	fmt.Fprintf(w, "✅ Attending: %d\n", s.AttendingContacts)
	fmt.Fprintf(w, "❌ Not attending: %d\n", s.DecliningContacts)
	fmt.Fprintf(w, "👥 Total guests: %d\n", s.TotalGuests)

	writeCounts(w, "Dietary preferences", s.DietaryPreferences)
	writeCounts(w, "Starters", s.Starters)
	writeCounts(w, "Mains", s.Mains)
	writeCounts(w, "Desserts", s.Desserts)

	if len(s.DietaryNotes) > 0 {
		fmt.Fprintln(w, "\nDietary notes:")
		for _, n := range s.DietaryNotes {
			fmt.Fprintf(w, "  %s: %s\n", n.Guest, n.Notes)
		}
	}

	if len(s.Recent) > 0 {
		fmt.Fprintln(w, "\nRecent responses:")
		for _, r := range s.Recent {
			fmt.Fprintf(w, "  %s  %-20s %s\n", r.SubmittedAt.Format("2006-01-02 15:04"), r.ContactName, r.Attending)
		}
	}
}

func writeCounts[K ~string](w io.Writer, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

// NewExportCommand writes responses as CSV.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var (
		out           string
		attendingOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export responses as CSV",
		Long:  `Export responses as CSV. Without --out a dated file name such as wedding_rsvps_all_20260101.csv is used; --out - writes to stdout.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.store.ReadAll(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to read responses: %w", err)
			}

			kind := "all"
			if attendingOnly {
				kind = "attending"
				records = report.AttendingOnly(records)
			}

			if out == "-" {
				return report.WriteCSV(cmd.OutOrStdout(), records)
			}
			if out == "" {
				out = report.ExportFileName(kind, opts.now())
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := report.WriteCSV(file, records); err != nil {
				file.Close()
				return fmt.Errorf("failed to write export: %w", err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			a.log.Info().Str("file", out).Int("rows", len(records)).Msg("Exported responses")
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	cmd.Flags().BoolVar(&attendingOnly, "attending-only", false, "only export attending rows")
	return cmd
}
