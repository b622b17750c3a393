package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	memoryCost = 64 * 1024
	timeCost   = 1
	threads    = 4
	saltLength = 16
	keyLength  = 32
)

// HashPassword derives an argon2id hash with a fresh random salt.
// The result is a self-describing PHC string, so verification needs
// nothing beyond the stored value.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryCost, threads, keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryCost, timeCost, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// CheckPassword re-derives the hash with the parameters embedded in the
// stored string and compares in constant time.
func CheckPassword(encoded, password string) bool {
	salt, key, m, t, p, err := decode(encoded)
	if err != nil {
		FakeCheck(password)
		return false
	}

	derived := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, derived) == 1
}

// FakeCheck burns one argon2 derivation against a fixed salt, so a
// lookup miss costs the same as a wrong password.
func FakeCheck(password string) {
	var salt [saltLength]byte
	argon2.IDKey([]byte(password), salt[:], timeCost, memoryCost, threads, keyLength)
}

func decode(encoded string) (salt, key []byte, m, t uint32, p uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		err = errors.New("malformed password hash")
		return
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return
	}
	if version != argon2.Version {
		err = fmt.Errorf("unsupported argon2 version %d", version)
		return
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	return
}
