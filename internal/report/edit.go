package report

import (
	"fmt"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
)

// Edits describes operator changes against a snapshot, addressed by row index
type Edits struct {
	Set    map[int]map[string]string
	Delete map[int]bool
}

// ApplyEdits builds the complete replacement set from a snapshot.
// Rows not mentioned are carried over unchanged, so a filtered edit never drops other rows.
func ApplyEdits(base []models.Response, edits Edits) ([]models.Response, error) {
	for i := range edits.Set {
		if i < 0 || i >= len(base) {
			return nil, fmt.Errorf("row %d out of range (0-%d)", i, len(base)-1)
		}
	}
	for i := range edits.Delete {
		if i < 0 || i >= len(base) {
			return nil, fmt.Errorf("row %d out of range (0-%d)", i, len(base)-1)
		}
	}

	out := make([]models.Response, 0, len(base))
	for i, r := range base {
		if edits.Delete[i] {
			continue
		}
		for field, value := range edits.Set[i] {
			var err error
			if r, err = setField(r, field, value); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func setField(r models.Response, field, value string) (models.Response, error) {
	switch field {
	case "submitted_at":
		if value == "" {
			r.SubmittedAt = time.Time{}
			break
		}
		ts, err := time.Parse(models.TimeLayout, value)
		if err != nil {
			return r, fmt.Errorf("invalid submitted_at: %w", err)
		}
		r.SubmittedAt = ts.UTC()
	case "contact_name":
		r.ContactName = value
	case "contact_email":
		r.ContactEmail = value
	case "contact_phone":
		r.ContactPhone = value
	case "attending":
		a, ok := models.ParseAttendance(value)
		if !ok {
			return r, fmt.Errorf("invalid attending %q", value)
		}
		r.Attending = a
	case "guest_first_name":
		r.GuestFirstName = value
	case "guest_last_name":
		r.GuestLastName = value
	case "dietary_preference":
		d, ok := models.ParseDietary(value)
		if !ok {
			return r, fmt.Errorf("invalid dietary_preference %q", value)
		}
		r.DietaryPreference = d
	case "dietary_notes":
		r.DietaryNotes = value
	case "starter_choice":
		r.StarterChoice = value
	case "main_choice":
		r.MainChoice = value
	case "dessert_choice":
		r.DessertChoice = value
	case "comments":
		r.Comments = value
	default:
		return r, fmt.Errorf("unknown field %q (fields: %s)", field, strings.Join(models.Columns, ", "))
	}
	return r, nil
}
