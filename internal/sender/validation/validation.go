// Package validation provides destination checks shared by the senders and
// the authoring surface.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// IsE164 reports whether s is already a normalized E.164 number.
func IsE164(s string) bool {
	return e164Pattern.MatchString(s)
}

// NormalizePhone converts a human-entered phone number to E.164.
// Separators are dropped and a leading 00 becomes +. Numbers without a
// country prefix get defaultCountryCode when one is configured.
func NormalizePhone(raw, defaultCountryCode string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", fmt.Errorf("invalid phone number: %q", raw)
		}
	}

	phone := b.String()
	switch {
	case strings.HasPrefix(phone, "+"):
	case strings.HasPrefix(phone, "00"):
		phone = "+" + phone[2:]
	case defaultCountryCode != "":
		phone = "+" + strings.TrimPrefix(defaultCountryCode, "+") + strings.TrimPrefix(phone, "0")
	}

	if !IsE164(phone) {
		return "", fmt.Errorf("invalid phone number: %q", raw)
	}
	return phone, nil
}

// IsEmail reports whether s is a single bare e-mail address.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
