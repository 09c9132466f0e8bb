package utils

import "golang.org/x/crypto/bcrypt"

// HashBotKey returns the bcrypt hash of a shared bot key using the
// given cost. Used by deployment tooling to produce the value stored
// in configuration; the service itself only verifies.
func HashBotKey(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyBotKey safely compares the configured bcrypt hash against the
// key submitted by the telegram integration.
func VerifyBotKey(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
