package booking

import (
	"fmt"
	"time"
)

// Status is the stored lifecycle state of an appointment record.
// Confirmed may transition to Cancelled or Completed; both are terminal.
type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// Slot is one of the nine fixed hourly time labels a doctor sees patients in.
type Slot string

// AllSlots spans 9:00 AM through 5:00 PM. Order matters: schedules are
// presented in this order.
var AllSlots = []Slot{
	"9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM",
}

// slotIndex returns the position of s in the daily schedule, or -1 if s is
// not a known slot label.
func slotIndex(s Slot) int {
	for i, slot := range AllSlots {
		if slot == s {
			return i
		}
	}
	return -1
}

// ValidSlot reports whether s is one of the fixed daily slot labels.
func ValidSlot(s Slot) bool {
	return slotIndex(s) >= 0
}

// Doctor holds one entry of the fixed clinic roster. Doctors are identified
// everywhere by their display name; the username only matters for login.
type Doctor struct {
	Username    string
	DisplayName string
}

// Roster is the clinic's fixed set of doctors, known at startup. Not
// created or destroyed at runtime.
var Roster = []Doctor{
	{Username: "dr_smith", DisplayName: "Dr. Smith (Cardiology)"},
	{Username: "dr_johnson", DisplayName: "Dr. Johnson (Pediatrics)"},
	{Username: "dr_williams", DisplayName: "Dr. Williams (Neurology)"},
	{Username: "dr_brown", DisplayName: "Dr. Brown (Orthopedics)"},
	{Username: "dr_davis", DisplayName: "Dr. Davis (Dermatology)"},
}

// DoctorByUsername resolves a login username to a roster entry.
func DoctorByUsername(username string) (Doctor, bool) {
	for _, d := range Roster {
		if d.Username == username {
			return d, true
		}
	}
	return Doctor{}, false
}

// KnownDoctor reports whether displayName belongs to the roster.
func KnownDoctor(displayName string) bool {
	for _, d := range Roster {
		if d.DisplayName == displayName {
			return true
		}
	}
	return false
}

const (
	dateLayout      = "01/02/2006"
	timestampLayout = "01/02/2006 15:04:05"
)

// Date is a calendar day with no time component, serialized as MM/DD/YYYY.
// It is a comparable value type so composite keys built from it have
// structural equality instead of string matching.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses the MM/DD/YYYY wire format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// Time returns midnight local time of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// Before reports whether the day starts before instant t.
func (d Date) Before(t time.Time) bool {
	return d.Time().Before(t)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Timestamp is a wall-clock instant serialized as MM/DD/YYYY HH:MM:SS, the
// format the appointment document has always used for created_at.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// MarshalJSON overrides the promoted time.Time encoding to keep the
// document's historical format.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.Format(timestampLayout) + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("parse timestamp %s: not a JSON string", s)
	}
	t, err := time.ParseInLocation(timestampLayout, s[1:len(s)-1], time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp %s: %w", s, err)
	}
	ts.Time = t
	return nil
}

// SlotKey identifies one bookable (doctor, date, slot) triple. It is the
// composite identity used for all matching: appointment records carry no
// unique id.
type SlotKey struct {
	Doctor string
	Date   Date
	Slot   Slot
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s %s %s", k.Doctor, k.Date, k.Slot)
}

// AppointmentRecord is one booking attempt, owned by exactly one patient
// (the username keying the appointment document). Entries are never
// deleted, only status-transitioned.
type AppointmentRecord struct {
	PatientName string    `json:"patient_name"`
	Contact     string    `json:"contact"`
	Insurance   string    `json:"insurance"`
	Doctor      string    `json:"doctor"`
	Date        Date      `json:"date"`
	Time        Slot      `json:"time"`
	Reason      string    `json:"reason"`
	Status      Status    `json:"status"`
	CreatedAt   Timestamp `json:"created_at"`
}

// Key returns the composite identity of the record.
func (r AppointmentRecord) Key() SlotKey {
	return SlotKey{Doctor: r.Doctor, Date: r.Date, Slot: r.Time}
}

// Display statuses. Stored status wins for Cancelled and Completed; a
// Confirmed record is presented as Upcoming or Completed depending on
// whether its date has passed. This derivation is view-time only and is
// never written back.
const (
	DisplayUpcoming  = "Upcoming"
	DisplayCompleted = "Completed"
	DisplayCancelled = "Cancelled"
)

// DisplayStatus derives the status shown to patients as of instant now.
func (r AppointmentRecord) DisplayStatus(now time.Time) string {
	switch r.Status {
	case StatusCancelled:
		return DisplayCancelled
	case StatusCompleted:
		return DisplayCompleted
	}
	if r.Date.Before(now) {
		return DisplayCompleted
	}
	return DisplayUpcoming
}
