package booking

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("07/01/2026")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2026, Month: time.July, Day: 1}, d)
	assert.Equal(t, "07/01/2026", d.String())

	for _, bad := range []string{"", "2026-07-01", "13/01/2026", "07/32/2026", "7/1/26"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDateBeforeAndAddDays(t *testing.T) {
	d, err := ParseDate("09/01/2026")
	require.NoError(t, err)

	assert.True(t, d.Before(time.Date(2026, 9, 1, 0, 0, 1, 0, time.Local)))
	assert.False(t, d.Before(time.Date(2026, 8, 31, 23, 59, 59, 0, time.Local)))

	assert.Equal(t, "09/30/2026", d.AddDays(29).String())
	assert.Equal(t, "10/01/2026", d.AddDays(30).String())
}

func TestSlotValidity(t *testing.T) {
	assert.Len(t, AllSlots, 9)
	for _, s := range AllSlots {
		assert.True(t, ValidSlot(s))
	}
	assert.False(t, ValidSlot("8:00 AM"))
	assert.False(t, ValidSlot("9:00 am"))
	assert.False(t, ValidSlot(""))
}

func TestRosterLookups(t *testing.T) {
	assert.Len(t, Roster, 5)

	d, ok := DoctorByUsername("dr_smith")
	require.True(t, ok)
	assert.Equal(t, "Dr. Smith (Cardiology)", d.DisplayName)

	_, ok = DoctorByUsername("dr_nobody")
	assert.False(t, ok)

	assert.True(t, KnownDoctor("Dr. Davis (Dermatology)"))
	assert.False(t, KnownDoctor("Dr. Davis"))
}

func TestDisplayStatusDerivation(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	past := mustDate(t, "07/01/2026")
	future := mustDate(t, "10/15/2026")

	tests := []struct {
		name   string
		status Status
		date   Date
		want   string
	}{
		{"confirmed future is upcoming", StatusConfirmed, future, DisplayUpcoming},
		{"confirmed past derives completed", StatusConfirmed, past, DisplayCompleted},
		{"stored cancelled wins over date", StatusCancelled, future, DisplayCancelled},
		{"stored completed wins over date", StatusCompleted, future, DisplayCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := AppointmentRecord{Status: tt.status, Date: tt.date}
			assert.Equal(t, tt.want, rec.DisplayStatus(now))
		})
	}
}

func TestRecordWireFormat(t *testing.T) {
	rec := AppointmentRecord{
		PatientName: "Alice Anderson",
		Contact:     "555-0100",
		Insurance:   "Acme Health",
		Doctor:      "Dr. Smith (Cardiology)",
		Date:        mustDate(t, "07/01/2026"),
		Time:        "9:00 AM",
		Reason:      "Annual checkup",
		Status:      StatusConfirmed,
		CreatedAt:   NewTimestamp(time.Date(2026, 6, 20, 14, 30, 5, 0, time.Local)),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "07/01/2026", raw["date"])
	assert.Equal(t, "9:00 AM", raw["time"])
	assert.Equal(t, "Confirmed", raw["status"])
	assert.Equal(t, "06/20/2026 14:30:05", raw["created_at"])

	var back AppointmentRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}
