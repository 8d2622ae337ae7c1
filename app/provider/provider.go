package provider

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
)

var (
	// ErrConfiguration is returned when a provider is missing a required setting; no I/O is attempted.
	ErrConfiguration = errors.New("email provider configuration")
	// ErrTransport is returned when the provider call could not be completed at all.
	ErrTransport = errors.New("email provider transport")
)

// maxOutcomeBody caps the number of runes kept from a provider response body.
const maxOutcomeBody = 1024

// Outcome is the provider's answer to a send call.
type Outcome struct {
	StatusCode int
	Body       string
}

// Success reports whether the status code is in [200, 400).
func (o Outcome) Success() bool {
	return o.StatusCode >= 200 && o.StatusCode < 400
}

// EmailProvider delivers a single email job.
//
// HTTP-level rejections are returned as an Outcome, not as an error.
type EmailProvider interface {
	Send(ctx context.Context, j job.EmailJob) (Outcome, error)
}

func truncateBody(body string) string {
	if utf8.RuneCountInString(body) <= maxOutcomeBody {
		return body
	}
	return string([]rune(body)[:maxOutcomeBody])
}
