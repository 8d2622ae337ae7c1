package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
)

const sendGridMailEndpoint = "/v3/mail/send"

// SendGridConfig configures the SendGrid provider.
type SendGridConfig struct {
	APIKey string
	// Host overrides the API base URL; empty means https://api.sendgrid.com.
	Host   string
	Sender string
	// HTTPClient is used for every request; http.DefaultClient when nil.
	HTTPClient *http.Client
}

// SendGridProvider sends single-recipient HTML emails through the SendGrid v3 API.
type SendGridProvider struct {
	apiKey string
	host   string
	sender string
	client *rest.Client
}

// NewSendGridProvider builds a SendGrid provider. The API key is checked on every Send.
func NewSendGridProvider(cfg SendGridConfig) *SendGridProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SendGridProvider{
		apiKey: cfg.APIKey,
		host:   cfg.Host,
		sender: cfg.Sender,
		client: &rest.Client{HTTPClient: httpClient},
	}
}

// Send posts the job to the mail send endpoint.
func (p *SendGridProvider) Send(ctx context.Context, j job.EmailJob) (Outcome, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return Outcome{}, fmt.Errorf("%w: SENDGRID_API_KEY is not set", ErrConfiguration)
	}
	if strings.TrimSpace(p.sender) == "" {
		return Outcome{}, fmt.Errorf("%w: sender address is not set", ErrConfiguration)
	}

	message := mail.NewV3MailInit(
		mail.NewEmail("", p.sender),
		j.Subject,
		mail.NewEmail("", j.To),
		mail.NewContent("text/html", j.Body),
	)

	request := sendgrid.GetRequest(p.apiKey, sendGridMailEndpoint, p.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(message)

	response, err := p.client.SendWithContext(ctx, request)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: sendgrid mail send: %v", ErrTransport, err)
	}

	return Outcome{StatusCode: response.StatusCode, Body: truncateBody(response.Body)}, nil
}
