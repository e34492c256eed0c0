package rsvp

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
)

// Submission is one request-scoped RSVP attempt, as entered by the guest
type Submission struct {
	ContactName  string
	ContactEmail string
	ContactPhone string
	Attending    string
	Guests       []Guest
	Comments     string
}

// Guest holds one attending guest's answers
type Guest struct {
	FirstName    string
	LastName     string
	Dietary      string
	DietaryNotes string
	Starter      string
	Main         string
	Dessert      string
}

// Menu restricts the menu choices. An empty course list accepts any value.
type Menu struct {
	Starters []string
	Mains    []string
	Desserts []string
}

// guest field prefixes in a flat form payload, suffixed with _<index>
var guestKeys = []string{
	"guest_first_name",
	"guest_last_name",
	"dietary_preference",
	"dietary_notes",
	"starter_choice",
	"main_choice",
	"dessert_choice",
}

// ParseForm builds a Submission from a flat field map such as
// {"contact_name": "...", "attending": "Yes", "guest_first_name_0": "..."}.
// Guests are ordered by index; gaps in the numbering are skipped.
func ParseForm(form map[string]string) Submission {
	sub := Submission{
		ContactName:  form["contact_name"],
		ContactEmail: form["contact_email"],
		ContactPhone: form["contact_phone"],
		Attending:    form["attending"],
		Comments:     form["comments"],
	}

	indexes := map[int]bool{}
	for key := range form {
		for _, prefix := range guestKeys {
			rest, ok := strings.CutPrefix(key, prefix+"_")
			if !ok {
				continue
			}
			if i, err := strconv.Atoi(rest); err == nil && i >= 0 {
				indexes[i] = true
			}
		}
	}

	order := make([]int, 0, len(indexes))
	for i := range indexes {
		order = append(order, i)
	}
	sort.Ints(order)

	for _, i := range order {
		field := func(prefix string) string { return form[fmt.Sprintf("%s_%d", prefix, i)] }
		sub.Guests = append(sub.Guests, Guest{
			FirstName:    field("guest_first_name"),
			LastName:     field("guest_last_name"),
			Dietary:      field("dietary_preference"),
			DietaryNotes: field("dietary_notes"),
			Starter:      field("starter_choice"),
			Main:         field("main_choice"),
			Dessert:      field("dessert_choice"),
		})
	}
	return sub
}

// Validate returns every problem with the submission, in field order
func (s Submission) Validate(menu Menu) []string {
	var problems []string

	if strings.TrimSpace(s.ContactName) == "" {
		problems = append(problems, "Contact name is required")
	}

	attending, ok := models.ParseAttendance(s.Attending)
	if !ok {
		problems = append(problems, "Please choose whether you will attend (Yes or No)")
		return problems
	}
	if attending == models.AttendingNo {
		return problems
	}

	if len(s.Guests) == 0 {
		problems = append(problems, "At least one guest is required when attending")
	}
	for i, g := range s.Guests {
		n := i + 1
		if strings.TrimSpace(g.FirstName) == "" {
			problems = append(problems, fmt.Sprintf("First name of guest %d is required", n))
		}
		if strings.TrimSpace(g.LastName) == "" {
			problems = append(problems, fmt.Sprintf("Last name of guest %d is required", n))
		}
		if _, ok := models.ParseDietary(g.Dietary); !ok {
			problems = append(problems, fmt.Sprintf("Dietary preference %q of guest %d is not one of None, Vegetarian, Vegan", g.Dietary, n))
		}
		problems = appendMenuProblem(problems, "Starter", g.Starter, menu.Starters, n)
		problems = appendMenuProblem(problems, "Main course", g.Main, menu.Mains, n)
		problems = appendMenuProblem(problems, "Dessert", g.Dessert, menu.Desserts, n)
	}
	return problems
}

func appendMenuProblem(problems []string, course, choice string, options []string, guest int) []string {
	choice = strings.TrimSpace(choice)
	if choice == "" || len(options) == 0 || slices.Contains(options, choice) {
		return problems
	}
	return append(problems, fmt.Sprintf("%s %q of guest %d is not on the menu", course, choice, guest))
}

// Records expands a valid submission into stored rows sharing one timestamp.
// A declined submission yields a single row with empty guest fields.
func (s Submission) Records(at time.Time) []models.Response {
	contact := models.Response{
		SubmittedAt:  at,
		ContactName:  strings.TrimSpace(s.ContactName),
		ContactEmail: strings.TrimSpace(s.ContactEmail),
		ContactPhone: strings.TrimSpace(s.ContactPhone),
		Comments:     strings.TrimSpace(s.Comments),
	}

	attending, _ := models.ParseAttendance(s.Attending)
	if attending != models.AttendingYes {
		contact.Attending = models.AttendingNo
		return []models.Response{contact}
	}

	records := make([]models.Response, 0, len(s.Guests))
	for _, g := range s.Guests {
		r := contact
		r.Attending = models.AttendingYes
		r.GuestFirstName = strings.TrimSpace(g.FirstName)
		r.GuestLastName = strings.TrimSpace(g.LastName)
		r.DietaryPreference, _ = models.ParseDietary(g.Dietary)
		r.DietaryNotes = strings.TrimSpace(g.DietaryNotes)
		r.StarterChoice = strings.TrimSpace(g.Starter)
		r.MainChoice = strings.TrimSpace(g.Main)
		r.DessertChoice = strings.TrimSpace(g.Dessert)
		records = append(records, r)
	}
	return records
}
