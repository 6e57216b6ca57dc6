// Package payload builds channel-specific content from a delivery message.
package payload

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
)

// MaxSMSLength is the longest SMS body the gateway accepts, signature included.
const MaxSMSLength = 1600

// EmailPayload is the subject and plain-text body of an e-mail.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmail builds the e-mail subject and body for a message.
// An explicit subject on the message is kept as is.
func BuildEmail(msg strategy.Message) EmailPayload {
	subject := msg.Subject
	if subject == "" {
		subject = fmt.Sprintf("[%s] Tour update", msg.Severity)
	}

	var sb strings.Builder
	sb.WriteString(msg.Body)
	sb.WriteString("\n\n")
	if len(msg.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Impact: %s\n", strings.Join(msg.Tags, " ")))
	}
	sb.WriteString(fmt.Sprintf("Severity: %s\n", msg.Severity))
	if msg.TourID != "" {
		sb.WriteString(fmt.Sprintf("Tour: %s\n", msg.TourID))
	}
	if msg.RefID != "" {
		sb.WriteString(fmt.Sprintf("Reference: %s\n", msg.RefID))
	}

	return EmailPayload{Subject: subject, Body: sb.String()}
}

// SMSBody appends the signature and trims the body so the result fits in max
// characters. The signature itself is never cut.
func SMSBody(body, signature string, max int) string {
	suffix := ""
	if signature != "" {
		suffix = "\n" + signature
	}

	room := max - utf8.RuneCountInString(suffix)
	if room < 0 {
		room = 0
	}
	if utf8.RuneCountInString(body) > room {
		runes := []rune(body)
		body = string(runes[:room])
	}
	return body + suffix
}
