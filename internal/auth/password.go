package auth

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"nananom-farms/site/internal/config"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func validatePassword(password string, req config.PasswordRequirements) error {
	if len(password) < req.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrWeakPassword, req.MinLength)
	}

	var hasUpper, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasNumber = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
	}

	if req.RequireUppercase && !hasUpper {
		return fmt.Errorf("%w: password must contain an uppercase letter", ErrWeakPassword)
	}
	if req.RequireNumbers && !hasNumber {
		return fmt.Errorf("%w: password must contain a number", ErrWeakPassword)
	}
	if req.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: password must contain a special character", ErrWeakPassword)
	}
	return nil
}
