package token

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tobywinn/giftlist/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.AuthToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newService(t *testing.T) (*Service, models.User) {
	db := initTestDB(t)
	user := models.User{Username: "test_user", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return &Service{DB: db, Duration: time.Hour}, user
}

func TestGenerateShape(t *testing.T) {
	tok, err := Generate()
	require.NoError(t, err)
	require.Len(t, tok, 30)
	for _, r := range tok {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		require.True(t, ok, "unexpected character %q in token", r)
	}
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		tok, err := Generate()
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token after %d draws", i)
		seen[tok] = struct{}{}
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc, user := newService(t)

	tok, expiry, err := svc.Issue(user.ID)
	require.NoError(t, err)
	require.Len(t, tok, 30)
	require.True(t, expiry.After(time.Now()))

	resolved, err := svc.Validate(tok)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
	require.Equal(t, "test_user", resolved.Username)
}

func TestValidateRejectsUnknownAndEmpty(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Validate("")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Validate("nosuchtokennosuchtokennosucht0")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc, user := newService(t)

	tok, _, err := svc.Issue(user.ID)
	require.NoError(t, err)

	err = svc.DB.Model(&models.AuthToken{}).
		Where("token = ?", tok).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)

	_, err = svc.Validate(tok)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRevokeFlipsAcceptance(t *testing.T) {
	svc, user := newService(t)

	tok, _, err := svc.Issue(user.ID)
	require.NoError(t, err)

	_, err = svc.Validate(tok)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(tok))

	_, err = svc.Validate(tok)
	require.ErrorIs(t, err, ErrInvalid)

	// the row is kept as audit trail, not deleted
	var rec models.AuthToken
	require.NoError(t, svc.DB.Where("token = ?", tok).First(&rec).Error)
	require.True(t, rec.Revoked)
}

func TestMultipleConcurrentSessions(t *testing.T) {
	svc, user := newService(t)

	first, _, err := svc.Issue(user.ID)
	require.NoError(t, err)
	second, _, err := svc.Issue(user.ID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = svc.Validate(first)
	require.NoError(t, err)
	_, err = svc.Validate(second)
	require.NoError(t, err)

	// revoking one device leaves the other logged in
	require.NoError(t, svc.Revoke(first))
	_, err = svc.Validate(first)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Validate(second)
	require.NoError(t, err)
}
