// Package phone normalizes pilot contact numbers for storage and SMS
// delivery. Platform layer, no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are assumed to be US, the launch
// market for pilot onboarding.
const defaultRegion = "US"

// NormalizeE164 converts input to E.164 form, such as +12025550143.
// Inputs that cannot be parsed or are not valid numbers come back
// trimmed but otherwise untouched, so callers never lose what the user
// typed.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	num, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
