package helpers

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with bcrypt. Callers must discard
// the plaintext immediately after; only the hash is ever persisted or logged.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
