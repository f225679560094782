// ABOUTME: Password hashing with bcrypt and the signup password policy
// ABOUTME: PasswordStrength scores a password 0-4 for the signup form

package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// dummyHash is compared against when a login names an unknown account so that
// both failure paths spend the same bcrypt time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// specialChars are the characters that count toward the special-character criterion.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Strength describes how a password fares against the signup criteria.
type Strength struct {
	Score          int    `json:"score"` // 0-4
	Label          string `json:"label"`
	HasMinLength   bool   `json:"has_min_length"`
	HasUpperCase   bool   `json:"has_upper_case"`
	HasLowerCase   bool   `json:"has_lower_case"`
	HasNumber      bool   `json:"has_number"`
	HasSpecialChar bool   `json:"has_special_char"`
}

var strengthLabels = [...]string{"Very Weak", "Weak", "Fair", "Good", "Strong"}

// PasswordStrength scores password one point each for minimum length, mixed
// case, a digit and a special character.
func PasswordStrength(password string) Strength {
	var s Strength
	s.HasMinLength = len([]rune(password)) >= MinPasswordLength
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			s.HasUpperCase = true
		case r >= 'a' && r <= 'z':
			s.HasLowerCase = true
		case r >= '0' && r <= '9':
			s.HasNumber = true
		case strings.ContainsRune(specialChars, r):
			s.HasSpecialChar = true
		}
	}

	if s.HasMinLength {
		s.Score++
	}
	if s.HasUpperCase && s.HasLowerCase {
		s.Score++
	}
	if s.HasNumber {
		s.Score++
	}
	if s.HasSpecialChar {
		s.Score++
	}
	s.Label = strengthLabels[s.Score]
	return s
}
