package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost stays at the library default; raise it here if hardware
// catches up.
const hashCost = bcrypt.DefaultCost

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)

	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// CheckPassword compares in constant time, so a failed login does not
// leak whether the email or the password was wrong.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
