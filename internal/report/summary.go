// Package report derives operator views from a response snapshot:
// headline counts, menu planning, search and CSV export.
package report

import (
	"sort"
	"strings"

	"wedding-rsvp/internal/models"
)

// recentLimit is how many responses Summary lists as recent
const recentLimit = 10

// Summary holds the headline numbers of the response set
type Summary struct {
	// Contact counts are distinct contact names
	TotalResponses     int                    `json:"total_responses"`
	AttendingContacts  int                    `json:"attending_contacts"`
	DecliningContacts  int                    `json:"declining_contacts"`
	TotalGuests        int                    `json:"total_guests"`
	DietaryPreferences map[models.Dietary]int `json:"dietary_preferences"`
	Starters           map[string]int         `json:"starters"`
	Mains              map[string]int         `json:"mains"`
	Desserts           map[string]int         `json:"desserts"`
	DietaryNotes       []GuestNote            `json:"dietary_notes"`
	Recent             []models.Response      `json:"recent"`
}

// GuestNote is a guest with free-text dietary requirements
type GuestNote struct {
	Guest string `json:"guest"`
	Notes string `json:"notes"`
}

// Summarize computes the summary of records
func Summarize(records []models.Response) Summary {
	s := Summary{
		DietaryPreferences: map[models.Dietary]int{},
		Starters:           map[string]int{},
		Mains:              map[string]int{},
		Desserts:           map[string]int{},
	}

	all := map[string]bool{}
	yes := map[string]bool{}
	no := map[string]bool{}

	for _, r := range records {
		all[r.ContactName] = true
		if r.Attending == models.AttendingNo {
			no[r.ContactName] = true
			continue
		}

		yes[r.ContactName] = true
		s.TotalGuests++

		pref := r.DietaryPreference
		if pref == "" {
			pref = models.DietaryNone
		}
		s.DietaryPreferences[pref]++
		countChoice(s.Starters, r.StarterChoice)
		countChoice(s.Mains, r.MainChoice)
		countChoice(s.Desserts, r.DessertChoice)

		if notes := strings.TrimSpace(r.DietaryNotes); notes != "" {
			s.DietaryNotes = append(s.DietaryNotes, GuestNote{Guest: r.GuestName(), Notes: notes})
		}
	}

	s.TotalResponses = len(all)
	s.AttendingContacts = len(yes)
	s.DecliningContacts = len(no)
	s.Recent = Recent(records, recentLimit)
	return s
}

// Recent returns up to n records, newest first. Records with equal timestamps keep their stored order.
func Recent(records []models.Response, n int) []models.Response {
	sorted := make([]models.Response, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Filter returns the records whose contact or guest name contains term, ignoring case
func Filter(records []models.Response, term string) []models.Response {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}

	var out []models.Response
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ContactName), term) ||
			strings.Contains(strings.ToLower(r.GuestFirstName), term) ||
			strings.Contains(strings.ToLower(r.GuestLastName), term) {
			out = append(out, r)
		}
	}
	return out
}

// AttendingOnly returns the records of attending guests
func AttendingOnly(records []models.Response) []models.Response {
	var out []models.Response
	for _, r := range records {
		if r.Attending == models.AttendingYes {
			out = append(out, r)
		}
	}
	return out
}

func countChoice(counts map[string]int, choice string) {
	if choice = strings.TrimSpace(choice); choice != "" {
		counts[choice]++
	}
}
