package provider

import (
	"context"
	"net/http"

	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
)

// NoopProvider is a stubbed provider that pretends to send emails.
type NoopProvider struct{}

// NewNoopProvider constructs a no-op email provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// Send reports an accepted outcome without sending.
func (p *NoopProvider) Send(_ context.Context, _ job.EmailJob) (Outcome, error) {
	return Outcome{StatusCode: http.StatusAccepted}, nil
}
