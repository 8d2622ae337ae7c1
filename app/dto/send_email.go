package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
)

var (
	ErrMissingFields    = errors.New("to, subject, and body are required")
	ErrInvalidRecipient = errors.New("to must be a valid email address")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type SendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// FromEchoContext binds and normalizes a request from Echo.
func FromEchoContext(ctx echo.Context) (SendEmailRequest, error) {
	var req SendEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return SendEmailRequest{}, err
	}
	req.To = strings.TrimSpace(req.To)
	return req, nil
}

// Validate checks required fields and the recipient format.
func (r *SendEmailRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "email" {
			return ErrInvalidRecipient
		}
	}
	return ErrMissingFields
}

// Job converts the request into the job published on the channel.
func (r *SendEmailRequest) Job() job.EmailJob {
	return job.EmailJob{To: r.To, Subject: r.Subject, Body: r.Body}
}
