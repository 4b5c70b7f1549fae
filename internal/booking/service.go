package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrSlotTaken  = errors.New("slot is already booked")
	ErrNotFound   = errors.New("no matching confirmed appointment")
	ErrValidation = errors.New("validation failed")
)

// BookRequest carries everything a patient submits when booking. Insurance
// is the only optional field.
type BookRequest struct {
	PatientName string `json:"patient_name" validate:"required"`
	Contact     string `json:"contact" validate:"required"`
	Insurance   string `json:"insurance"`
	Doctor      string `json:"doctor" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
}

// AppointmentView is a record plus its derived display status.
type AppointmentView struct {
	AppointmentRecord
	DisplayStatus string `json:"display_status"`
}

// PatientStats backs the patient dashboard counters. Upcoming and past are
// split purely by date, matching how the dashboard has always counted;
// cancelled is counted by stored status.
type PatientStats struct {
	Upcoming  int `json:"upcoming"`
	Past      int `json:"past"`
	Cancelled int `json:"cancelled"`
	Doctors   int `json:"doctors"`
}

// Service orchestrates the slot ledger and the appointment history. It is
// the only component that mutates both documents, and always in a fixed
// order so a crash between the two writes never produces a double-bookable
// slot. Every operation holds the mutex across its full
// load-mutate-save cycle so concurrent handlers in this process cannot
// interleave read-modify-write on the documents.
type Service struct {
	mu         sync.Mutex
	store      Store
	log        *zap.Logger
	validate   *validator.Validate
	windowDays int
	now        func() time.Time
}

// NewService wires the booking core. windowDays bounds the calendar view
// (how far ahead the booking calendar offers dates).
func NewService(store Store, log *zap.Logger, windowDays int) *Service {
	return &Service{
		store:      store,
		log:        log,
		validate:   validator.New(),
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Availability returns the free slots for a doctor on a date.
func (s *Service) Availability(doctor string, date Date) ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.store.LoadLedger()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return ledger.FreeSlots(doctor, date), nil
}

// Calendar returns the free-slot count per date from today through the
// booking window.
func (s *Service) Calendar(doctor string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.store.LoadLedger()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	today := DateOf(s.now())
	out := make(map[string]int, s.windowDays+1)
	for i := 0; i <= s.windowDays; i++ {
		d := today.AddDays(i)
		out[d.String()] = len(ledger.FreeSlots(doctor, d))
	}
	return out, nil
}

// Book creates a Confirmed appointment for username. The ledger is updated
// and persisted before the patient record: if the process dies between the
// two writes the slot stays marked unavailable with no record attached,
// which loses bookkeeping but can never double-book.
func (s *Service) Book(username string, req BookRequest) (*AppointmentRecord, error) {
	key, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.store.LoadLedger()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if !ledger.Available(key) {
		return nil, fmt.Errorf("%s: %w", key, ErrSlotTaken)
	}

	ledger.Book(key)
	if err := s.store.SaveLedger(ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	rec := AppointmentRecord{
		PatientName: req.PatientName,
		Contact:     req.Contact,
		Insurance:   req.Insurance,
		Doctor:      key.Doctor,
		Date:        key.Date,
		Time:        key.Slot,
		Reason:      req.Reason,
		Status:      StatusConfirmed,
		CreatedAt:   NewTimestamp(s.now()),
	}
	appts.Append(username, rec)
	if err := s.store.SaveAppointments(appts); err != nil {
		return nil, fmt.Errorf("save appointments: %w", err)
	}

	s.log.Info("appointment booked",
		zap.String("username", username),
		zap.String("doctor", key.Doctor),
		zap.String("date", key.Date.String()),
		zap.String("slot", string(key.Slot)))

	return &rec, nil
}

// Cancel flips the first matching Confirmed record to Cancelled, then
// frees the ledger slot. Ordering is the inverse of Book: if the process
// dies between the two writes the slot stays marked unavailable, which is
// conservative. Cancelling an already-cancelled booking is ErrNotFound and
// must not free the slot again, since another patient may hold it by now.
func (s *Service) Cancel(username string, key SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	if !appts.SetStatus(username, key, StatusCancelled) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err := s.store.SaveAppointments(appts); err != nil {
		return fmt.Errorf("save appointments: %w", err)
	}

	ledger, err := s.store.LoadLedger()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	ledger.Free(key)
	if err := s.store.SaveLedger(ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	s.log.Info("appointment cancelled",
		zap.String("username", username),
		zap.String("doctor", key.Doctor),
		zap.String("date", key.Date.String()),
		zap.String("slot", string(key.Slot)))

	return nil
}

// Complete marks the first matching Confirmed record Completed. The ledger
// is untouched: a completed slot stays blocked for its historical date.
// This is the username-scoped primitive; the HTTP layer only exposes the
// doctor-facing CompleteAny, which resolves the owner and applies the
// same transition.
func (s *Service) Complete(username string, key SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete(username, key)
}

// CompleteAny is the doctor-facing variant: the doctor knows the triple
// but not which patient booked it, so the owner is resolved by scanning.
func (s *Service) CompleteAny(key SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	username, ok := appts.OwnerOfConfirmed(key)
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return s.complete(username, key)
}

func (s *Service) complete(username string, key SlotKey) error {
	appts, err := s.store.LoadAppointments()
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	if !appts.SetStatus(username, key, StatusCompleted) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err := s.store.SaveAppointments(appts); err != nil {
		return fmt.Errorf("save appointments: %w", err)
	}

	s.log.Info("appointment completed",
		zap.String("username", username),
		zap.String("doctor", key.Doctor),
		zap.String("date", key.Date.String()),
		zap.String("slot", string(key.Slot)))

	return nil
}

// PatientAppointments returns the patient's full history, oldest date
// first, each record annotated with its derived display status.
func (s *Service) PatientAppointments(username string) ([]AppointmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	recs := append([]AppointmentRecord(nil), appts.All(username)...)
	sortByDateAsc(recs)

	now := s.now()
	views := make([]AppointmentView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, AppointmentView{
			AppointmentRecord: rec,
			DisplayStatus:     rec.DisplayStatus(now),
		})
	}
	return views, nil
}

// PatientStats computes the dashboard counters for a patient.
func (s *Service) PatientStats(username string) (PatientStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return PatientStats{}, fmt.Errorf("load appointments: %w", err)
	}

	now := s.now()
	doctors := map[string]struct{}{}
	var stats PatientStats
	for _, rec := range appts.All(username) {
		if rec.Date.Before(now) {
			stats.Past++
		} else {
			stats.Upcoming++
		}
		if rec.Status == StatusCancelled {
			stats.Cancelled++
		}
		doctors[rec.Doctor] = struct{}{}
	}
	stats.Doctors = len(doctors)
	return stats, nil
}

// DoctorAppointments returns the doctor's appointments across every
// patient, optionally filtered by stored status and exact date, newest
// date first. The cross-patient scan is linear in the total number of
// records, a documented limit of the flat-file layout.
func (s *Service) DoctorAppointments(doctor string, status Status, date *Date) ([]AppointmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	var out []AppointmentRecord
	for _, rec := range appts.ByDoctor(doctor) {
		if status != "" && rec.Status != status {
			continue
		}
		if date != nil && rec.Date != *date {
			continue
		}
		out = append(out, rec)
	}
	sortByDateDesc(out)
	return out, nil
}

// TodaySchedule returns the doctor's non-cancelled appointments for today,
// in slot order.
func (s *Service) TodaySchedule(doctor string) ([]AppointmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.store.LoadAppointments()
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	today := DateOf(s.now())
	var out []AppointmentRecord
	for _, rec := range appts.ByDoctor(doctor) {
		if rec.Date == today && rec.Status != StatusCancelled {
			out = append(out, rec)
		}
	}
	sortBySlot(out)
	return out, nil
}

// validateRequest checks required fields and the well-formedness of the
// doctor, date, and slot, returning the composite key on success.
func (s *Service) validateRequest(req BookRequest) (SlotKey, error) {
	if err := s.validate.Struct(req); err != nil {
		return SlotKey{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !KnownDoctor(req.Doctor) {
		return SlotKey{}, fmt.Errorf("%w: unknown doctor %q", ErrValidation, req.Doctor)
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return SlotKey{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	slot := Slot(req.Time)
	if !ValidSlot(slot) {
		return SlotKey{}, fmt.Errorf("%w: unknown time slot %q", ErrValidation, req.Time)
	}
	return SlotKey{Doctor: req.Doctor, Date: date, Slot: slot}, nil
}
