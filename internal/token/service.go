package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tobywinn/giftlist/internal/models"
)

// ErrInvalid covers every way a session token can fail: missing,
// unknown, expired or revoked. Callers must not tell them apart.
var ErrInvalid = errors.New("invalid session token")

const (
	tokenLength = 30
	alphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
)

type Service struct {
	DB       *gorm.DB
	Duration time.Duration
}

// Generate returns a 30-character lowercase alphanumeric token from
// the system CSPRNG, roughly 155 bits of entropy.
func Generate() (string, error) {
	// 252 is the largest multiple of 36 below 256; rejecting bytes
	// above it keeps the draw uniform.
	const limit = byte(len(alphabet) * (256 / len(alphabet)))

	out := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength*2)
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("token entropy: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == tokenLength {
				break
			}
		}
	}
	return string(out), nil
}

// Issue generates a token, persists it with expiry = now + Duration and
// returns it. The token column is UNIQUE; a collision is practically
// impossible at this entropy, so a single retry is plenty.
func (s *Service) Issue(userID uint) (string, time.Time, error) {
	expiry := time.Now().Add(s.Duration)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := Generate()
		if err != nil {
			return "", time.Time{}, err
		}

		rec := models.AuthToken{
			Token:     tok,
			UserID:    userID,
			ExpiresAt: expiry,
			Revoked:   false,
		}
		if err := s.DB.Create(&rec).Error; err != nil {
			lastErr = err
			continue
		}
		return tok, expiry, nil
	}
	return "", time.Time{}, fmt.Errorf("persist token: %w", lastErr)
}

// Validate resolves a token to its user. A token is accepted iff it
// exists, is not revoked and has not expired; everything else is
// ErrInvalid with no further detail.
func (s *Service) Validate(tok string) (*models.User, error) {
	if tok == "" {
		return nil, ErrInvalid
	}

	var rec models.AuthToken
	err := s.DB.Where("token = ? AND revoked = ?", tok, false).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}

	if !time.Now().Before(rec.ExpiresAt) {
		return nil, ErrInvalid
	}

	var user models.User
	err = s.DB.First(&user, rec.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	return &user, nil
}

// Revoke flips the revoked flag on the given token. Rows are kept as an
// audit trail, never deleted.
func (s *Service) Revoke(tok string) error {
	result := s.DB.Model(&models.AuthToken{}).
		Where("token = ?", tok).
		Update("revoked", true)
	if result.Error != nil {
		return fmt.Errorf("revoke token: %w", result.Error)
	}
	return nil
}
