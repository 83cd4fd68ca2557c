package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	phoneRegex = `^\+?[1-9]\d{1,14}$`
)

const (
	PhoneTag = "phone"
)

var phonePattern = regexp.MustCompile(phoneRegex)

var valid = map[string]func(fl validator.FieldLevel) bool{
	PhoneTag: ValidatePhone,
}

// ValidatePhone accepts E.164 numbers, ignoring the separators people usually type.
func ValidatePhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

func IsPhone(number string) bool {
	return phonePattern.MatchString(StripPhone(number))
}

// StripPhone drops everything but digits and a leading plus.
func StripPhone(number string) string {
	number = strings.TrimSpace(number)

	var b strings.Builder
	for i, r := range number {
		if r >= '0' && r <= '9' || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
