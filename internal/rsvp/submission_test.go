package rsvp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForm(t *testing.T) {
	sub := ParseForm(map[string]string{
		"contact_name":         "Anna Weber",
		"contact_email":        "anna@example.com",
		"attending":            "Yes",
		"comments":             "hi",
		"guest_first_name_0":   "Anna",
		"guest_last_name_0":    "Weber",
		"dietary_preference_0": "Vegan",
		"guest_first_name_2":   "Clara",
		"guest_last_name_2":    "Weber",
		"main_choice_2":        "Fish",
		"guest_first_name_x":   "ignored",
		"unrelated":            "ignored",
	})

	assert.Equal(t, "Anna Weber", sub.ContactName)
	assert.Equal(t, "anna@example.com", sub.ContactEmail)
	assert.Equal(t, "Yes", sub.Attending)
	assert.Equal(t, "hi", sub.Comments)
	require.Len(t, sub.Guests, 2)
	assert.Equal(t, Guest{FirstName: "Anna", LastName: "Weber", Dietary: "Vegan"}, sub.Guests[0])
	assert.Equal(t, Guest{FirstName: "Clara", LastName: "Weber", Main: "Fish"}, sub.Guests[1])
}

func TestParseForm_Empty(t *testing.T) {
	sub := ParseForm(nil)
	assert.Empty(t, sub.Guests)
	assert.NotEmpty(t, sub.Validate(Menu{}))
}

func TestRecords_TrimsFields(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	sub := Submission{
		ContactName: "  Ben ",
		Attending:   "yes",
		Guests:      []Guest{{FirstName: " Ben ", LastName: " Doe ", Main: " Fish "}},
	}

	records := sub.Records(at)
	require.Len(t, records, 1)
	assert.Equal(t, "Ben", records[0].ContactName)
	assert.Equal(t, "Ben Doe", records[0].GuestName())
	assert.Equal(t, "Fish", records[0].MainChoice)
	assert.Equal(t, at, records[0].SubmittedAt)
}
