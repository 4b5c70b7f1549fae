// Package filestore persists the two booking documents as JSON files in a
// data directory. Every save is a full-document overwrite through a temp
// file and rename. Missing or corrupt documents fail open to an empty
// seeded document; that keeps the application usable with a damaged data
// file at the cost of silently dropping its contents, which is logged.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/clinicdesk/appointment-scheduling/internal/booking"
)

const (
	ledgerFile       = "appointments.json"
	appointmentsFile = "user_appointments.json"
)

type FileStore struct {
	dir string
	log *zap.Logger
}

func New(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

// Dir returns the data directory the store writes under.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) LoadLedger() (booking.Ledger, error) {
	ledger, err := load[booking.Ledger](s, ledgerFile)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = booking.NewLedger()
	}
	ledger.EnsureRoster()
	return ledger, nil
}

func (s *FileStore) SaveLedger(l booking.Ledger) error {
	return s.save(ledgerFile, l)
}

func (s *FileStore) LoadAppointments() (booking.Appointments, error) {
	appts, err := load[booking.Appointments](s, appointmentsFile)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = booking.NewAppointments()
	}
	return appts, nil
}

func (s *FileStore) SaveAppointments(a booking.Appointments) error {
	return s.save(appointmentsFile, a)
}

// load returns the zero value when the file is missing or cannot be
// decoded. Only real I/O failures surface as errors.
func load[T any](s *FileStore, name string) (T, error) {
	var zero T
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", name, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.log.Warn("document corrupt, starting from empty",
			zap.String("file", name),
			zap.Error(err))
		return zero, nil
	}
	return v, nil
}

func (s *FileStore) save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
