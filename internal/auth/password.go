package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"donationhub/internal/domain"
)

// PasswordCost matches the work factor of hashes issued by earlier deployments.
const PasswordCost = 10

// MinPasswordLen is the shortest password accepted at signup.
const MinPasswordLen = 6

// MaxPasswordLen is bcrypt's input limit in bytes.
const MaxPasswordLen = 72

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// dummyHash is compared against when an email is unknown so that a miss costs
// as much as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("donationhub-unknown-account")
	if err != nil {
		panic(err)
	}
	return h
})

func validatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return fmt.Errorf("%w: password needs at least %d characters", domain.ErrValidation, MinPasswordLen)
	}
	if len(pw) > MaxPasswordLen {
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, MaxPasswordLen)
	}
	return nil
}
