package utils

import (
    "crypto/rand"
    "fmt"
    "math/big"
)

// OTPDigits is the length of a generated MFA code.
const OTPDigits = 6

// NewOTPCode returns a zero-padded numeric one-time code ("018932").
// crypto/rand backs the draw so codes are not guessable from earlier
// ones.
func NewOTPCode() (string, error) {
    max := big.NewInt(1)
    for i := 0; i < OTPDigits; i++ {
        max.Mul(max, big.NewInt(10))
    }
    n, err := rand.Int(rand.Reader, max)
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%0*d", OTPDigits, n), nil
}
