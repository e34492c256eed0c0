package deadline

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var (
	testDeadline = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	testLead     = 7 * 24 * time.Hour
	testGrace    = 24 * time.Hour
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want State
	}{
		{"well before warning", testDeadline.Add(-30 * 24 * time.Hour), StateOpen},
		{"just before warning", testDeadline.Add(-testLead - time.Nanosecond), StateOpen},
		{"warning starts", testDeadline.Add(-testLead), StateWarning},
		{"just before deadline", testDeadline.Add(-time.Nanosecond), StateWarning},
		{"at deadline", testDeadline, StateGrace},
		{"inside grace", testDeadline.Add(time.Hour), StateGrace},
		{"grace end inclusive", testDeadline.Add(testGrace), StateGrace},
		{"just after grace", testDeadline.Add(testGrace + time.Nanosecond), StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.now, testDeadline, testLead, testGrace))
		})
	}
}

func TestClassify_ZeroGraceClosesAfterDeadline(t *testing.T) {
	assert.Equal(t, StateGrace, Classify(testDeadline, testDeadline, testLead, 0))
	assert.Equal(t, StateClosed, Classify(testDeadline.Add(time.Second), testDeadline, testLead, 0))
}

func TestClassify_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	leadSecs := int64(testLead / time.Second)
	graceSecs := int64(testGrace / time.Second)
	at := func(secs int64) time.Time { return testDeadline.Add(time.Duration(secs) * time.Second) }

	properties.Property("before the warning lead is open", prop.ForAll(
		func(secs int64) bool {
			return Classify(at(secs), testDeadline, testLead, testGrace) == StateOpen
		},
		gen.Int64Range(-10*leadSecs, -leadSecs-1),
	))

	properties.Property("inside the warning lead is warning", prop.ForAll(
		func(secs int64) bool {
			return Classify(at(secs), testDeadline, testLead, testGrace) == StateWarning
		},
		gen.Int64Range(-leadSecs, -1),
	))

	properties.Property("deadline through grace end is grace", prop.ForAll(
		func(secs int64) bool {
			return Classify(at(secs), testDeadline, testLead, testGrace) == StateGrace
		},
		gen.Int64Range(0, graceSecs),
	))

	properties.Property("after grace end is closed", prop.ForAll(
		func(secs int64) bool {
			return Classify(at(secs), testDeadline, testLead, testGrace) == StateClosed
		},
		gen.Int64Range(graceSecs+1, 10*graceSecs),
	))

	properties.TestingRun(t)
}

func TestPolicy_NoDeadlineAlwaysOpen(t *testing.T) {
	var p Policy
	assert.False(t, p.Enabled())
	assert.Equal(t, StateOpen, p.Classify(time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC)))

	w := p.Window(time.Now())
	assert.Equal(t, StateOpen, w.State)
	assert.True(t, w.Deadline.IsZero())
	assert.Zero(t, w.Remaining)
}

func TestPolicy_Window(t *testing.T) {
	p := Policy{Deadline: testDeadline, WarningLead: testLead, Grace: testGrace}

	w := p.Window(testDeadline.Add(-3 * time.Hour))
	assert.Equal(t, StateWarning, w.State)
	assert.Equal(t, 3*time.Hour, w.Remaining)
	assert.True(t, w.GraceEnd.IsZero())

	w = p.Window(testDeadline.Add(time.Hour))
	assert.Equal(t, StateGrace, w.State)
	assert.Equal(t, testDeadline.Add(testGrace), w.GraceEnd)
	assert.Zero(t, w.Remaining)

	w = p.Window(testDeadline.Add(testGrace + time.Minute))
	assert.Equal(t, StateClosed, w.State)
	assert.False(t, w.State.Accepting())
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "less than 1 minute", FormatRemaining(30*time.Second))
	assert.Equal(t, "1 minute", FormatRemaining(time.Minute+10*time.Second))
	assert.Equal(t, "2 days, 3 hours, 5 minutes", FormatRemaining(51*time.Hour+5*time.Minute))
	assert.Equal(t, "1 day", FormatRemaining(24*time.Hour))
	assert.Equal(t, "1 hour, 1 minute", FormatRemaining(61*time.Minute))
}
