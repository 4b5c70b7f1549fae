package booking

import "sort"

// Appointments is the canonical appointment history: patient username ->
// records in booking order, the in-memory form of the appointment document.
// Records are never removed, only status-transitioned in place.
type Appointments map[string][]AppointmentRecord

// NewAppointments returns an empty appointment document.
func NewAppointments() Appointments {
	return Appointments{}
}

// Append adds a record to the end of the patient's history.
func (a Appointments) Append(username string, rec AppointmentRecord) {
	a[username] = append(a[username], rec)
}

// findConfirmed locates the first Confirmed record matching key in the
// patient's history, in insertion order. The composite key is not
// guaranteed unique, so first insertion wins; terminal records are skipped
// so a cancelled booking never shadows a live rebooking of the same triple.
func (a Appointments) findConfirmed(username string, key SlotKey) (int, bool) {
	for i, rec := range a[username] {
		if rec.Status == StatusConfirmed && rec.Key() == key {
			return i, true
		}
	}
	return 0, false
}

// SetStatus transitions the first Confirmed record matching key to a
// terminal status. Reports false when no live record matches, which covers
// both "never booked" and "already cancelled or completed".
func (a Appointments) SetStatus(username string, key SlotKey, to Status) bool {
	i, ok := a.findConfirmed(username, key)
	if !ok {
		return false
	}
	a[username][i].Status = to
	return true
}

// All returns the patient's full history, unfiltered, in booking order.
func (a Appointments) All(username string) []AppointmentRecord {
	return a[username]
}

// ByDoctor scans every patient's history for the doctor's appointments.
// This is O(total records across all patients), which is fine at
// single-clinic volume; callers should not assume any patient ordering.
func (a Appointments) ByDoctor(doctor string) []AppointmentRecord {
	var out []AppointmentRecord
	for _, recs := range a {
		for _, rec := range recs {
			if rec.Doctor == doctor {
				out = append(out, rec)
			}
		}
	}
	return out
}

// OwnerOfConfirmed returns the username holding a Confirmed record for key,
// if any. Used by the doctor-facing complete flow, which knows the triple
// but not which patient booked it.
func (a Appointments) OwnerOfConfirmed(key SlotKey) (string, bool) {
	usernames := make([]string, 0, len(a))
	for u := range a {
		usernames = append(usernames, u)
	}
	// Deterministic scan order so repeated calls resolve the same owner.
	sort.Strings(usernames)
	for _, u := range usernames {
		if _, ok := a.findConfirmed(u, key); ok {
			return u, true
		}
	}
	return "", false
}

// ConsistentWith verifies the cross-store invariant against a ledger:
// every Confirmed record's triple is present, every Cancelled record's
// triple is absent unless some other live record holds it. Completed
// records keep their historical ledger entry and are not checked.
func (a Appointments) ConsistentWith(l Ledger) bool {
	held := map[SlotKey]bool{}
	for _, recs := range a {
		for _, rec := range recs {
			if rec.Status == StatusConfirmed || rec.Status == StatusCompleted {
				held[rec.Key()] = true
			}
		}
	}
	for _, recs := range a {
		for _, rec := range recs {
			switch rec.Status {
			case StatusConfirmed:
				if l.Available(rec.Key()) {
					return false
				}
			case StatusCancelled:
				if !held[rec.Key()] && !l.Available(rec.Key()) {
					return false
				}
			}
		}
	}
	return true
}

// sortBySlot orders records by their position in the daily schedule.
func sortBySlot(recs []AppointmentRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return slotIndex(recs[i].Time) < slotIndex(recs[j].Time)
	})
}

// sortByDateDesc orders records newest date first.
func sortByDateDesc(recs []AppointmentRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[j].Date.Time().Before(recs[i].Date.Time())
	})
}

// sortByDateAsc orders records oldest date first.
func sortByDateAsc(recs []AppointmentRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date.Time().Before(recs[j].Date.Time())
	})
}
