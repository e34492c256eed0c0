package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"wedding-rsvp/internal/models"
)

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// indexedResponse pairs a record with its row index in the full snapshot
type indexedResponse struct {
	Row int `json:"row"`
	models.Response
}

func writeResponsesText(w io.Writer, rows []indexedResponse, total int) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No responses found.")
		return
	}

	fmt.Fprintf(w, "📋 Responses (showing %d of %d):\n", len(rows), total)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, r := range rows {
		fmt.Fprintf(w, "Row: %d\n", r.Row)
		fmt.Fprintf(w, "Contact: %s", r.ContactName)
		if r.ContactEmail != "" {
			fmt.Fprintf(w, " <%s>", r.ContactEmail)
		}
		if r.ContactPhone != "" {
			fmt.Fprintf(w, " %s", r.ContactPhone)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Attending: %s\n", r.Attending)
		if name := r.GuestName(); name != "" {
			fmt.Fprintf(w, "Guest: %s (%s)\n", name, r.DietaryPreference)
		}
		if choices := strings.Join(nonEmpty(r.StarterChoice, r.MainChoice, r.DessertChoice), " / "); choices != "" {
			fmt.Fprintf(w, "Menu: %s\n", choices)
		}
		if r.DietaryNotes != "" {
			fmt.Fprintf(w, "Dietary notes: %s\n", r.DietaryNotes)
		}
		if r.Comments != "" {
			fmt.Fprintf(w, "Comments: %s\n", r.Comments)
		}
		if !r.SubmittedAt.IsZero() {
			fmt.Fprintf(w, "Submitted: %s\n", r.SubmittedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(w, strings.Repeat("-", 60))
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
