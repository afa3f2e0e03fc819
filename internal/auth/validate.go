package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/recipebox/internal/models"
)

// Registration limits.
const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 16
)

// ErrInvalidRegistration wraps every registration validation failure.
var ErrInvalidRegistration = errors.New("invalid registration")

// ValidateRegistration checks reg and returns all problems joined.
func ValidateRegistration(reg *models.Registration) error {
	var errs []error
	if err := ValidateUsername(reg.Username); err != nil {
		errs = append(errs, err)
	}
	if err := validateEmail(reg.Email); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePassword(reg.Password); err != nil {
		errs = append(errs, err)
	}
	if reg.Password != "" && reg.Password != reg.PasswordConfirm {
		errs = append(errs, errors.New("passwords do not match"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRegistration, errors.Join(errs...))
}

// ValidateUsername accepts letters, digits and @.+-_ up to MaxUsernameLength.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return fmt.Errorf("username contains invalid character %q", r)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address %q", email)
	}
	return nil
}

// ValidatePassword requires MinPasswordLength to MaxPasswordLength characters
// with at least one digit and one uppercase letter.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters long", MinPasswordLength, MaxPasswordLength)
	}
	var digit, upper bool
	for _, r := range password {
		digit = digit || unicode.IsDigit(r)
		upper = upper || unicode.IsUpper(r)
	}
	if !digit {
		return errors.New("password must contain at least one number")
	}
	if !upper {
		return errors.New("password must contain at least one uppercase letter")
	}
	return nil
}
