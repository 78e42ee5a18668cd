// Package internal holds crypto-random helpers shared by the engine. Nothing
// here is part of the public API.
package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// NewOTP returns a uniformly distributed numeric code of the given length,
// zero-padded, from crypto/rand. A single draw over [0, 10^digits) keeps the
// distribution uniform across the whole code, leading zeros included.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
