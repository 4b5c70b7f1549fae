// Package auth handles patient registration and patient/doctor login.
// Patient credentials live in one CSV file per user under the data
// directory; doctors are the fixed roster with a shared password from
// configuration. Passwords are stored as bcrypt hashes.
package auth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/appointment-scheduling/internal/booking"
)

var (
	ErrAlreadyExists   = errors.New("username already exists")
	ErrNotFound        = errors.New("username not found")
	ErrBadPassword     = errors.New("incorrect password")
	ErrInvalidUsername = errors.New("invalid username")
)

// Usernames become file names under the user database directory, so they
// must never carry path separators or a leading dot.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidUsername reports whether a username is safe to use as a
// credential file name.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"

	usersSubdir = "user_database"
)

// Profile is what a patient registers with.
type Profile struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type Service struct {
	dir            string
	doctorPassword string
	log            *zap.Logger
}

func NewService(dataDir, doctorPassword string, log *zap.Logger) (*Service, error) {
	dir := filepath.Join(dataDir, usersSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create user database dir: %w", err)
	}
	return &Service{dir: dir, doctorPassword: doctorPassword, log: log}, nil
}

func (s *Service) userFile(username string) string {
	return filepath.Join(s.dir, username+".csv")
}

// Exists reports whether a patient account exists.
func (s *Service) Exists(username string) bool {
	if !ValidUsername(username) {
		return false
	}
	_, err := os.Stat(s.userFile(username))
	return err == nil
}

// Register creates a patient account. One CSV file per user, a header row
// and a single data row holding the profile and the bcrypt password hash.
func (s *Service) Register(p Profile, password string) error {
	if !ValidUsername(p.Username) {
		return fmt.Errorf("%q: %w", p.Username, ErrInvalidUsername)
	}
	if s.Exists(p.Username) {
		return fmt.Errorf("%s: %w", p.Username, ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	f, err := os.OpenFile(s.userFile(p.Username), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", p.Username, ErrAlreadyExists)
		}
		return fmt.Errorf("create user file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"username", "email", "phone", "password"}); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}
	if err := w.Write([]string{p.Username, p.Email, p.Phone, string(hash)}); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}

	s.log.Info("patient registered", zap.String("username", p.Username))
	return nil
}

// LoginPatient verifies a patient's password against the stored hash.
func (s *Service) LoginPatient(username, password string) error {
	if !ValidUsername(username) {
		return fmt.Errorf("%q: %w", username, ErrNotFound)
	}
	f, err := os.Open(s.userFile(username))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", username, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("open user file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read user file: %w", err)
	}
	// Header row plus one data row; the hash is the last column.
	if len(rows) < 2 || len(rows[1]) < 4 {
		return fmt.Errorf("%s: %w", username, ErrNotFound)
	}
	if bcrypt.CompareHashAndPassword([]byte(rows[1][3]), []byte(password)) != nil {
		return fmt.Errorf("%s: %w", username, ErrBadPassword)
	}
	return nil
}

// LoginDoctor verifies a roster username against the shared doctor
// password and returns the doctor's display name.
func (s *Service) LoginDoctor(username, password string) (string, error) {
	doc, ok := booking.DoctorByUsername(username)
	if !ok {
		return "", fmt.Errorf("%s: %w", username, ErrNotFound)
	}
	if password != s.doctorPassword {
		return "", fmt.Errorf("%s: %w", username, ErrBadPassword)
	}
	return doc.DisplayName, nil
}
