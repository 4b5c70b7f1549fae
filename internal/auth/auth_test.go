package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(t.TempDir(), "roster-password", zap.NewNop())
	require.NoError(t, err)
	return s
}

func testProfile() Profile {
	return Profile{Username: "alice", Email: "alice@example.com", Phone: "555-0100"}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register(testProfile(), "s3cret"))
	assert.True(t, s.Exists("alice"))

	assert.NoError(t, s.LoginPatient("alice", "s3cret"))
	assert.ErrorIs(t, s.LoginPatient("alice", "wrong"), ErrBadPassword)
	assert.ErrorIs(t, s.LoginPatient("nobody", "s3cret"), ErrNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register(testProfile(), "s3cret"))
	assert.ErrorIs(t, s.Register(testProfile(), "other"), ErrAlreadyExists)

	// The original password still works.
	assert.NoError(t, s.LoginPatient("alice", "s3cret"))
}

func TestRegisterRejectsUnsafeUsernames(t *testing.T) {
	base := t.TempDir()
	s, err := NewService(filepath.Join(base, "data"), "roster-password", zap.NewNop())
	require.NoError(t, err)

	for _, username := range []string{
		"../../escaped",
		"..",
		"nested/name",
		`nested\name`,
		".hidden",
		"space name",
		"",
	} {
		p := Profile{Username: username, Email: "a@example.com", Phone: "555-0100"}
		assert.ErrorIs(t, s.Register(p, "pw"), ErrInvalidUsername, "username %q", username)
		assert.False(t, s.Exists(username), "username %q", username)
		assert.ErrorIs(t, s.LoginPatient(username, "pw"), ErrNotFound, "username %q", username)
	}

	// No credential file landed above the user database directory.
	assert.NoFileExists(t, filepath.Join(base, "escaped.csv"))
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("alice"))
	assert.True(t, ValidUsername("john.doe-2"))
	assert.True(t, ValidUsername("dr_smith"))
	assert.False(t, ValidUsername(".hidden"))
	assert.False(t, ValidUsername("a/b"))
	assert.False(t, ValidUsername("../x"))
}

func TestLoginDoctor(t *testing.T) {
	s := newTestService(t)

	name, err := s.LoginDoctor("dr_smith", "roster-password")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Smith (Cardiology)", name)

	_, err = s.LoginDoctor("dr_smith", "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)

	_, err = s.LoginDoctor("dr_house", "roster-password")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue("alice", RolePatient, "")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RolePatient, claims.Role)
	assert.Empty(t, claims.DisplayName)
}

func TestTokenCarriesDoctorDisplayName(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue("dr_smith", RoleDoctor, "Dr. Smith (Cardiology)")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, claims.Role)
	assert.Equal(t, "Dr. Smith (Cardiology)", claims.DisplayName)
}

func TestTokenRejections(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	_, err := m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Wrong secret.
	other := NewTokenManager("other-secret", time.Hour)
	token, err := other.Issue("alice", RolePatient, "")
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired.
	expired := NewTokenManager("test-secret", -time.Minute)
	token, err = expired.Issue("alice", RolePatient, "")
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
