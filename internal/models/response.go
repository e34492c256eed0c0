package models

import (
	"fmt"
	"strings"
	"time"
)

// Response represents one persisted RSVP row. An attending party produces one row per guest.
type Response struct {
	SubmittedAt       time.Time  `json:"submitted_at"`
	ContactName       string     `json:"contact_name"`
	ContactEmail      string     `json:"contact_email"`
	ContactPhone      string     `json:"contact_phone"`
	Attending         Attendance `json:"attending"`
	GuestFirstName    string     `json:"guest_first_name"`
	GuestLastName     string     `json:"guest_last_name"`
	DietaryPreference Dietary    `json:"dietary_preference"`
	DietaryNotes      string     `json:"dietary_notes"`
	StarterChoice     string     `json:"starter_choice"`
	MainChoice        string     `json:"main_choice"`
	DessertChoice     string     `json:"dessert_choice"`
	Comments          string     `json:"comments"`
}

// Attendance represents the attendance answer
type Attendance string

const (
	AttendingYes Attendance = "Yes"
	AttendingNo  Attendance = "No"
)

// Valid reports whether a is a known attendance value
func (a Attendance) Valid() bool {
	return a == AttendingYes || a == AttendingNo
}

// ParseAttendance accepts the canonical values and the common yes/no spellings
func ParseAttendance(s string) (Attendance, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "attending":
		return AttendingYes, true
	case "no", "n", "false", "not attending":
		return AttendingNo, true
	}
	return "", false
}

// Dietary represents a guest's dietary preference
type Dietary string

const (
	DietaryNone       Dietary = "None"
	DietaryVegetarian Dietary = "Vegetarian"
	DietaryVegan      Dietary = "Vegan"
)

// ParseDietary maps free input to a preference. Empty input means None.
func ParseDietary(s string) (Dietary, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DietaryNone, true
	case "vegetarian":
		return DietaryVegetarian, true
	case "vegan":
		return DietaryVegan, true
	}
	return "", false
}

// Columns is the persisted column set, in file order.
var Columns = []string{
	"submitted_at",
	"contact_name",
	"contact_email",
	"contact_phone",
	"attending",
	"guest_first_name",
	"guest_last_name",
	"dietary_preference",
	"dietary_notes",
	"starter_choice",
	"main_choice",
	"dessert_choice",
	"comments",
}

// TimeLayout is the persisted timestamp format
const TimeLayout = time.RFC3339

// Row returns the record's values in Columns order
func (r Response) Row() []string {
	ts := ""
	if !r.SubmittedAt.IsZero() {
		ts = r.SubmittedAt.UTC().Format(TimeLayout)
	}
	return []string{
		ts,
		r.ContactName,
		r.ContactEmail,
		r.ContactPhone,
		string(r.Attending),
		r.GuestFirstName,
		r.GuestLastName,
		string(r.DietaryPreference),
		r.DietaryNotes,
		r.StarterChoice,
		r.MainChoice,
		r.DessertChoice,
		r.Comments,
	}
}

// FromRow parses a row in Columns order
func FromRow(row []string) (Response, error) {
	if len(row) != len(Columns) {
		return Response{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(row))
	}

	var r Response
	if row[0] != "" {
		ts, err := time.Parse(TimeLayout, row[0])
		if err != nil {
			return Response{}, fmt.Errorf("invalid submitted_at %q: %w", row[0], err)
		}
		r.SubmittedAt = ts.UTC()
	}

	attending, ok := ParseAttendance(row[4])
	if !ok {
		return Response{}, fmt.Errorf("invalid attending %q", row[4])
	}
	r.Attending = attending

	// hand-edited files may use any letter case; keep the canonical spelling
	if strings.TrimSpace(row[7]) != "" {
		pref, ok := ParseDietary(row[7])
		if !ok {
			return Response{}, fmt.Errorf("invalid dietary_preference %q", row[7])
		}
		r.DietaryPreference = pref
	}

	r.ContactName = row[1]
	r.ContactEmail = row[2]
	r.ContactPhone = row[3]
	r.GuestFirstName = row[5]
	r.GuestLastName = row[6]
	r.DietaryNotes = row[8]
	r.StarterChoice = row[9]
	r.MainChoice = row[10]
	r.DessertChoice = row[11]
	r.Comments = row[12]
	return r, nil
}

// Validate checks the record-level invariants and returns every violation
func (r Response) Validate() []string {
	var problems []string
	if strings.TrimSpace(r.ContactName) == "" {
		problems = append(problems, "contact_name is required")
	}
	if !r.Attending.Valid() {
		problems = append(problems, fmt.Sprintf("attending must be %q or %q", AttendingYes, AttendingNo))
	}
	if r.Attending == AttendingYes {
		if strings.TrimSpace(r.GuestFirstName) == "" {
			problems = append(problems, "guest_first_name is required for attending guests")
		}
		if strings.TrimSpace(r.GuestLastName) == "" {
			problems = append(problems, "guest_last_name is required for attending guests")
		}
	}
	return problems
}

// GuestName returns the guest's full name, or an empty string for a declined response
func (r Response) GuestName() string {
	return strings.TrimSpace(r.GuestFirstName + " " + r.GuestLastName)
}
