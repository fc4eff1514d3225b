package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewNumericCode returns a zero-padded decimal code of the given width drawn
// from crypto/rand.
func NewNumericCode(digits int) (string, error) {
	if digits <= 0 {
		digits = 6 // по умолчанию 6 цифр
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
