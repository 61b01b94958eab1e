package registry

import (
	"regexp"
	"strings"

	"github.com/garnizeh/crewboard/internal/fault"
)

// E.164-ish shape, same pattern the registration form enforces client-side.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{1,14}$`)

func requireBounded(field, value string, max int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fault.Validation(field, "is required")
	}
	if len(v) > max {
		return fault.Validation(field, "is too long")
	}
	return nil
}

func requirePhone(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fault.Validation(field, "is required")
	}
	if !phonePattern.MatchString(value) {
		return fault.Validation(field, "is not a valid phone number")
	}
	return nil
}
