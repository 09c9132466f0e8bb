package utils

import (
	"crypto/rand"
	"math/big"
)

// Verification codes are six-digit numbers with a non-zero leading
// digit, drawn from crypto/rand.
const (
	codeMin = 100000
	codeMax = 999999
)

// NewVerificationCode returns a random numeric code within the fixed
// digit-width range. The underlying call to crypto/rand ensures the
// value cannot be predicted from prior codes.
func NewVerificationCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return 0, err
	}
	return codeMin + int(n.Int64()), nil
}
