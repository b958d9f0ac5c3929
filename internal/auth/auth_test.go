package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"highrise/internal/config"
	"highrise/internal/models"
	"highrise/internal/store"
)

func newService(t *testing.T, mode string) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(0)
	svc := NewService(mem, config.Auth{Mode: mode, BcryptCost: bcrypt.MinCost}, zap.NewNop())
	require.NoError(t, store.Seed(context.Background(), mem, svc.Hash))
	return svc, mem
}

func TestMockLoginDerivesRole(t *testing.T) {
	svc, _ := newService(t, config.AuthModeMock)
	ctx := context.Background()

	u, err := svc.Login(ctx, "boss.admin@acme.io", "whatever")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	u, err = svc.Login(ctx, "jane@acme.io", "whatever")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	again, err := svc.Login(ctx, "JANE@acme.io", "different")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID, "same address keeps its id")

	seeded, err := svc.Login(ctx, "admin@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, "1", seeded.ID)
	assert.True(t, seeded.IsAdmin())
}

func TestMockRegisterIsAlwaysUser(t *testing.T) {
	svc, mem := newService(t, config.AuthModeMock)
	ctx := context.Background()

	u, err := svc.Register(ctx, "site-admin@acme.io", "secret1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	stored, err := mem.FindUserByEmail(ctx, "site-admin@acme.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	again, err := svc.Register(ctx, "site-admin@acme.io", "secret1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestCredentialValidation(t *testing.T) {
	svc, _ := newService(t, config.AuthModeMock)
	ctx := context.Background()

	tests := []struct {
		name            string
		email, pw, conf string
		fields          []string
	}{
		{"bad email", "not-an-email", "secret1", "secret1", []string{FieldEmail}},
		{"no tld", "jane@localhost", "secret1", "secret1", []string{FieldEmail}},
		{"display name", "Jane <jane@acme.io>", "secret1", "secret1", []string{FieldEmail}},
		{"short password", "jane@acme.io", "12345", "12345", []string{FieldPassword}},
		{"mismatch", "jane@acme.io", "secret1", "secret2", []string{FieldConfirmPassword}},
		{"everything", "", "", "x", []string{FieldEmail, FieldPassword, FieldConfirmPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.pw, tt.conf)
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Len(t, verrs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, verrs, f)
			}
		})
	}

	_, err := svc.Login(ctx, "jane@acme.io", "123")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, FieldPassword)
}

func TestVerifiedMode(t *testing.T) {
	svc, _ := newService(t, config.AuthModeVerified)
	ctx := context.Background()

	u, err := svc.Login(ctx, "user@example.com", store.FixturePassword)
	require.NoError(t, err)
	assert.Equal(t, "2", u.ID)

	_, err = svc.Login(ctx, "user@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ghost@example.com", store.FixturePassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, "User@Example.com", "secret1", "secret1")
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)

	fresh, err := svc.Register(ctx, "new@example.com", "secret1", "secret1")
	require.NoError(t, err)
	logged, err := svc.Login(ctx, "new@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, logged.ID)
	assert.Equal(t, models.RoleUser, logged.Role)
}

func TestRequestPasswordReset(t *testing.T) {
	svc, _ := newService(t, config.AuthModeMock)
	ctx := context.Background()
	require.NoError(t, svc.RequestPasswordReset(ctx, "user@example.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))

	var verrs ValidationErrors
	require.ErrorAs(t, svc.RequestPasswordReset(ctx, "nope"), &verrs)
}

func TestSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewSessions(time.Hour, clock)

	u := &models.User{ID: "2", Email: "user@example.com", Role: models.RoleUser}
	sess := s.Create(u)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got.User.Email)

	u.Email = "changed@example.com"
	got, _ = s.Get(sess.ID)
	assert.Equal(t, "user@example.com", got.User.Email, "session keeps its own copy")

	_, err = s.Get("unknown")
	require.ErrorIs(t, err, ErrNoSession)

	now = now.Add(time.Hour)
	_, err = s.Get(sess.ID)
	require.ErrorIs(t, err, ErrSessionExpired)
	_, err = s.Get(sess.ID)
	require.ErrorIs(t, err, ErrNoSession, "expired sessions are evicted")
}

func TestSessionsDeleteAndSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(time.Minute, func() time.Time { return now })
	u := &models.User{ID: "1"}

	a := s.Create(u)
	s.Create(u)
	s.Delete(a.ID)
	_, err := s.Get(a.ID)
	require.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Minute)
	s.Create(u)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestSessionsReportExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(time.Minute, func() time.Time { return now })
	var gone []string
	s.OnExpire(func(id string) { gone = append(gone, id) })

	u := &models.User{ID: "1"}
	swept := s.Create(u)
	looked := s.Create(u)
	s.Delete(s.Create(u).ID)

	now = now.Add(time.Minute)
	_, err := s.Get(looked.ID)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []string{looked.ID}, gone)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, []string{looked.ID, swept.ID}, gone, "deleted sessions are not reported")
	assert.Equal(t, 0, s.Sweep())
	assert.Len(t, gone, 2)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jane.doe+news@mail.acme.io"))
	assert.False(t, ValidEmail("jane@acme."))
	assert.False(t, ValidEmail("jane@.acme"))
	assert.False(t, ValidEmail("@acme.io"))
	assert.False(t, ValidEmail(""))
}
