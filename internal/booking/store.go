package booking

// Store persists the two documents the booking core owns. Each save is a
// full-document overwrite; there is no incremental update and no
// transaction spanning both documents. Loads never fail on a missing or
// corrupt document: implementations recover to an empty seeded document
// and only return errors for real I/O failures.
type Store interface {
	LoadLedger() (Ledger, error)
	SaveLedger(Ledger) error
	LoadAppointments() (Appointments, error)
	SaveAppointments(Appointments) error
}
