package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/report"
	"wedding-rsvp/internal/rsvp"
)

var (
	testDeadline = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	openNow      = testDeadline.Add(-30 * 24 * time.Hour)
)

// harness runs commands against one data directory with a fixed clock
type harness struct {
	dir      string
	backend  string
	deadline string
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		dir:      t.TempDir(),
		backend:  "csv",
		deadline: testDeadline.Format(time.RFC3339),
		now:      openNow,
	}
}

func (h *harness) run(args ...string) (string, error) {
	opts := &RootOptions{
		loadConfig: func() (*config.Config, error) {
			cfg := &config.Config{
				DataDir:         h.dir,
				StoreBackend:    h.backend,
				Deadline:        h.deadline,
				Timezone:        "UTC",
				WarningLead:     7 * 24 * time.Hour,
				GracePeriod:     24 * time.Hour,
				LockTimeout:     time.Second,
				LogLevel:        "error",
				WeddingCouple:   "Anna & Ben",
				WeddingDate:     "June 20, 2026",
				WeddingLocation: "Gut Sonnenhof",
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		},
		now:    func() time.Time { return h.now },
		logOut: io.Discard,
	}

	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(args...)
	require.NoError(t, err, out)
	return out
}

func (h *harness) listRows(t *testing.T) []indexedResponse {
	t.Helper()
	var rows []indexedResponse
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "list", "--format", "json")), &rows))
	return rows
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("status", "--format", "yaml")
	assert.ErrorContains(t, err, `invalid format "yaml"`)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "status")
	assert.Contains(t, out, "State: open")
	assert.Contains(t, out, "Deadline: June 1, 2026 at 18:00 UTC")

	h.now = testDeadline.Add(-2 * time.Hour)
	out = h.mustRun(t, "status")
	assert.Contains(t, out, "State: warning")
	assert.Contains(t, out, "2 hours left")

	h.now = testDeadline.Add(time.Hour)
	var status statusOutput
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "status", "--format", "json")), &status))
	assert.Equal(t, "grace", string(status.State))
	require.NotNil(t, status.GraceEnd)
	assert.True(t, status.GraceEnd.Equal(testDeadline.Add(24*time.Hour)))

	out = h.mustRun(t, "status", "--at", testDeadline.Add(48*time.Hour).Format(time.RFC3339))
	assert.Contains(t, out, "State: closed")
}

func TestStatus_NoDeadline(t *testing.T) {
	h := newHarness(t)
	h.deadline = ""

	out := h.mustRun(t, "status")
	assert.Contains(t, out, "State: open")
	assert.Contains(t, out, "always accepted")
}

func TestSubmit_AttendingWithGuests(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "submit",
		"--name", "Anna Weber",
		"--email", "anna@example.com",
		"--attending", "yes",
		"--guest", "Anna|Weber|Vegan|no nuts|Soup|Risotto|Cake",
		"--guest", "Ben|Weber",
	)
	assert.Contains(t, out, "Your response has been recorded")

	rows := h.listRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Row)
	assert.Equal(t, "Anna", rows[0].GuestFirstName)
	assert.Equal(t, models.DietaryVegan, rows[0].DietaryPreference)
	assert.Equal(t, "no nuts", rows[0].DietaryNotes)
	assert.Equal(t, "Risotto", rows[0].MainChoice)
	assert.Equal(t, models.DietaryNone, rows[1].DietaryPreference)
	assert.True(t, rows[0].SubmittedAt.Equal(rows[1].SubmittedAt), "one batch shares a timestamp")
	assert.True(t, rows[0].SubmittedAt.Equal(openNow))
}

func TestSubmit_FormFields(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "submit",
		"--field", "contact_name=Carl Braun",
		"--field", "attending=Yes",
		"--field", "guest_first_name_1=Dora",
		"--field", "guest_last_name_1=Braun",
		"--field", "guest_first_name_0=Carl",
		"--field", "guest_last_name_0=Braun",
	)

	rows := h.listRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "Carl", rows[0].GuestFirstName)
	assert.Equal(t, "Dora", rows[1].GuestFirstName)

	_, err := h.run("submit", "--field", "no-equals-sign")
	assert.ErrorContains(t, err, "expected key=value")
}

func TestSubmit_ValidationFailureStoresNothing(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("submit", "--name", "Anna", "--attending", "yes", "--guest", "Anna")
	require.Error(t, err)
	assert.Contains(t, out, "Please fix the following errors:")
	assert.Contains(t, out, "Last name of guest 1 is required")

	assert.Empty(t, h.listRows(t))
}

func TestSubmit_DeadlineClosed(t *testing.T) {
	h := newHarness(t)
	h.now = testDeadline.Add(25 * time.Hour)

	var outcome rsvp.Outcome
	out, err := h.run("submit", "--format", "json", "--name", "Carl", "--attending", "no")
	require.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, rsvp.StatusRejected, outcome.Status)
	assert.Equal(t, rsvp.ReasonDeadlineClosed, outcome.Reason)

	assert.Empty(t, h.listRows(t))
}

func TestSubmit_GraceShowsNotice(t *testing.T) {
	h := newHarness(t)
	h.now = testDeadline.Add(time.Hour)

	out := h.mustRun(t, "submit", "--name", "Carl", "--attending", "no")
	assert.Contains(t, out, "Your response has been recorded")
	assert.Contains(t, out, "responses are accepted until June 2, 2026 at 18:00 UTC")
}

func TestSubmit_SQLiteBackend(t *testing.T) {
	h := newHarness(t)
	h.backend = "sqlite"

	h.mustRun(t, "submit", "--name", "Carl", "--attending", "no")
	rows := h.listRows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AttendingNo, rows[0].Attending)
	assert.FileExists(t, filepath.Join(h.dir, "responses.db"))
}

func seed(t *testing.T, h *harness) {
	t.Helper()
	h.mustRun(t, "submit", "--name", "Anna Weber", "--attending", "yes",
		"--guest", "Anna|Weber|Vegan||Soup|Risotto|Cake",
		"--guest", "Ben|Weber|||Soup|Fish|Cake")
	h.now = h.now.Add(time.Minute)
	h.mustRun(t, "submit", "--name", "Carl Braun", "--attending", "no")
	h.now = h.now.Add(time.Minute)
	h.mustRun(t, "submit", "--name", "Dora Klein", "--attending", "yes",
		"--guest", "Dora|Klein|Vegetarian|gluten free||Risotto|")
}

func TestList_FilterKeepsRowNumbers(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	var rows []indexedResponse
	out := h.mustRun(t, "list", "--format", "json", "--search", "klein")
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Row)

	out = h.mustRun(t, "list", "--attending-only")
	assert.Contains(t, out, "showing 3 of 4")
	assert.NotContains(t, out, "Carl Braun")

	out = h.mustRun(t, "list", "--search", "nobody")
	assert.Contains(t, out, "No responses found.")
}

func TestSummary(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "summary", "--format", "json")), &s))
	assert.Equal(t, 3, s.TotalResponses)
	assert.Equal(t, 2, s.AttendingContacts)
	assert.Equal(t, 1, s.DecliningContacts)
	assert.Equal(t, 3, s.TotalGuests)
	assert.Equal(t, 2, s.Mains["Risotto"])
	assert.Equal(t, 1, s.DietaryPreferences[models.DietaryVegan])
	require.Len(t, s.Recent, 4)
	assert.Equal(t, "Dora Klein", s.Recent[0].ContactName)

	out := h.mustRun(t, "summary")
	assert.Contains(t, out, "👥 Total guests: 3")
	assert.Contains(t, out, "Dora Klein: gluten free")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	out := h.mustRun(t, "export", "--out", "-", "--attending-only")
	rows, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, models.Columns, rows[0])

	path := filepath.Join(t.TempDir(), "all.csv")
	out = h.mustRun(t, "export", "--out", path)
	assert.Contains(t, out, "Exported 4 rows")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err = csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestExport_DefaultFileName(t *testing.T) {
	h := newHarness(t)
	seed(t, h)
	t.Chdir(t.TempDir())

	h.mustRun(t, "export")
	assert.FileExists(t, report.ExportFileName("all", h.now))
}

func TestEditSetAndDelete(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	out := h.mustRun(t, "edit", "set", "1", "main_choice=Risotto", "dietary_notes=no shellfish")
	assert.Contains(t, out, "Saved 4 rows")

	rows := h.listRows(t)
	assert.Equal(t, "Risotto", rows[1].MainChoice)
	assert.Equal(t, "no shellfish", rows[1].DietaryNotes)
	assert.Equal(t, "Ben", rows[1].GuestFirstName, "untouched fields are kept")

	h.mustRun(t, "edit", "delete", "2", "0")
	rows = h.listRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ben", rows[0].GuestFirstName)
	assert.Equal(t, "Dora", rows[1].GuestFirstName)
}

func TestEdit_InvalidInput(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	_, err := h.run("edit", "set", "9", "main_choice=Fish")
	assert.ErrorContains(t, err, "out of range")

	_, err = h.run("edit", "set", "0", "shoe_size=42")
	assert.ErrorContains(t, err, "unknown field")

	_, err = h.run("edit", "set", "0", "attending=maybe")
	assert.ErrorContains(t, err, "invalid attending")

	_, err = h.run("edit", "delete", "first")
	assert.ErrorContains(t, err, "invalid row")

	assert.Len(t, h.listRows(t), 4, "failed edits write nothing")
}

func TestCheck(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "check")
	assert.Contains(t, out, "is writable (0 records)")

	h.dir = filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(h.dir, []byte("x"), 0o644))
	_, err := h.run("check")
	assert.Error(t, err)
}

func TestCheck_RejectsBadConfig(t *testing.T) {
	h := newHarness(t)
	h.backend = "postgres"

	_, err := h.run("check")
	assert.ErrorContains(t, err, "RSVP_STORE_BACKEND")
}

func TestParseGuestFlag(t *testing.T) {
	assert.Equal(t, rsvp.Guest{FirstName: "Anna"}, parseGuestFlag("Anna"))
	assert.Equal(t, rsvp.Guest{
		FirstName: "Anna", LastName: "Weber", Dietary: "Vegan",
		DietaryNotes: "no nuts", Starter: "Soup", Main: "Risotto", Dessert: "Cake",
	}, parseGuestFlag(" Anna | Weber |Vegan|no nuts|Soup|Risotto|Cake"))
}

func TestInvite_RefusesWithoutConnecting(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("invite", "--name", "Carl")
	assert.ErrorContains(t, err, "--name and --phone are required")

	h.now = testDeadline.Add(48 * time.Hour)
	_, err = h.run("invite", "--name", "Carl", "--phone", "491701234567")
	assert.ErrorContains(t, err, "deadline has passed")
	assert.NoFileExists(t, filepath.Join(h.dir, "whatsmeow.db"))
}
