package booking

// Ledger is the availability mask: doctor display name -> date -> booked
// slot labels, the in-memory form of the slot ledger document. Presence of
// a slot means unavailable; absence means available. The ledger knows
// nothing about which patient holds a slot or what status the matching
// record is in.
//
// A (doctor, date, slot) triple appears at most once. Book does not
// re-check availability; the booking service is responsible for the
// check-then-act sequence under its lock.
type Ledger map[string]map[string][]Slot

// NewLedger returns an empty ledger seeded with every doctor on the roster.
// Missing or corrupt persisted documents fail open to this.
func NewLedger() Ledger {
	l := make(Ledger, len(Roster))
	for _, d := range Roster {
		l[d.DisplayName] = map[string][]Slot{}
	}
	return l
}

// EnsureRoster backfills roster doctors absent from a loaded document.
func (l Ledger) EnsureRoster() {
	for _, d := range Roster {
		if _, ok := l[d.DisplayName]; !ok {
			l[d.DisplayName] = map[string][]Slot{}
		}
	}
}

// Available reports whether the slot is free. A missing doctor or date
// entry means every slot is free.
func (l Ledger) Available(key SlotKey) bool {
	for _, booked := range l[key.Doctor][key.Date.String()] {
		if booked == key.Slot {
			return false
		}
	}
	return true
}

// Book marks the slot unavailable. The caller must have verified
// availability first; booking an already-present slot is a no-op so the
// at-most-once invariant holds regardless.
func (l Ledger) Book(key SlotKey) {
	if !l.Available(key) {
		return
	}
	dates, ok := l[key.Doctor]
	if !ok {
		dates = map[string][]Slot{}
		l[key.Doctor] = dates
	}
	dates[key.Date.String()] = append(dates[key.Date.String()], key.Slot)
}

// Free removes the slot from the ledger, making it bookable again. Freeing
// an absent slot is a no-op, not an error: cancel paths may race a slot
// that was never booked or was freed already.
func (l Ledger) Free(key SlotKey) {
	slots := l[key.Doctor][key.Date.String()]
	for i, booked := range slots {
		if booked == key.Slot {
			l[key.Doctor][key.Date.String()] = append(slots[:i], slots[i+1:]...)
			return
		}
	}
}

// BookedSlots returns the booked slot labels for a doctor on a date.
func (l Ledger) BookedSlots(doctor string, date Date) []Slot {
	return l[doctor][date.String()]
}

// FreeSlots returns the available slots for a doctor on a date, in daily
// schedule order.
func (l Ledger) FreeSlots(doctor string, date Date) []Slot {
	free := make([]Slot, 0, len(AllSlots))
	for _, s := range AllSlots {
		if l.Available(SlotKey{Doctor: doctor, Date: date, Slot: s}) {
			free = append(free, s)
		}
	}
	return free
}
