// Package mail defines the outbound email abstraction used by background
// tasks and services. Implementations live under internal/platform; this
// package only carries the interface, the message type, and common errors.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by mailer implementations.
var (
	// ErrEmptyRecipient indicates the message has no destination address.
	ErrEmptyRecipient = errors.New("mail recipient cannot be empty")

	// ErrEmptySubject indicates the message has no subject line.
	ErrEmptySubject = errors.New("mail subject cannot be empty")

	// ErrEmptyBody indicates the message has no body.
	ErrEmptyBody = errors.New("mail body cannot be empty")

	// ErrSendFailed indicates delivery failed after exhausting retries.
	ErrSendFailed = errors.New("mail delivery failed")
)

// Message is a plain-text email to a single recipient.
type Message struct {
	// To is the recipient address.
	To string

	// Subject is the subject line.
	Subject string

	// Body is the plain-text message body.
	Body string
}

// Validate checks that the message is complete enough to send.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrEmptyRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(m.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

// Mailer sends email messages.
// Implementations must be safe for concurrent use.
type Mailer interface {
	// Send delivers the message, honoring context cancellation.
	// Returns an error wrapping ErrSendFailed when delivery cannot complete.
	Send(ctx context.Context, msg Message) error
}

// FormatResetSubject returns the subject line for a password reset email.
func FormatResetSubject(appName string) string {
	return fmt.Sprintf("%s password reset", appName)
}

// FormatResetBody renders the plain-text body of a password reset email.
// The resetURL carries the raw reset token and is the only place the raw
// token appears outside the requesting client.
func FormatResetBody(resetURL string) string {
	var b strings.Builder
	b.WriteString("We received a request to reset the password for your account.\n\n")
	b.WriteString("To choose a new password, open the link below:\n\n")
	b.WriteString(resetURL)
	b.WriteString("\n\nIf you did not request a password reset, you can ignore this message.\n")
	return b.String()
}
