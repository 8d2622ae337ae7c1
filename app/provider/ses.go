package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/preparer"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESProvider struct {
	client   sesAPI
	source   string
	preparer preparer.EmailPreparer
}

// NewSESProvider builds a provider that sends email via AWS SES.
func NewSESProvider(cfg aws.Config, source string) *SESProvider {
	return newSESProvider(sesv2.NewFromConfig(cfg), source)
}

func newSESProvider(client sesAPI, source string) *SESProvider {
	return &SESProvider{
		client:   client,
		source:   source,
		preparer: preparer.NewChain(source, preparer.NewHTMLPreparer()),
	}
}

// Send renders the job as raw MIME and sends it via SES.
func (p *SESProvider) Send(ctx context.Context, j job.EmailJob) (Outcome, error) {
	if strings.TrimSpace(p.source) == "" {
		return Outcome{}, fmt.Errorf("%w: sender address is not set", ErrConfiguration)
	}

	raw, err := p.preparer.Prepare(ctx, j)
	if err != nil {
		return Outcome{StatusCode: http.StatusBadRequest, Body: err.Error()}, nil
	}

	out, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.source),
		Destination: &types.Destination{
			ToAddresses: []string{j.To},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return Outcome{StatusCode: respErr.HTTPStatusCode(), Body: truncateBody(err.Error())}, nil
		}
		return Outcome{}, fmt.Errorf("%w: ses send email: %v", ErrTransport, err)
	}

	return Outcome{StatusCode: http.StatusOK, Body: aws.ToString(out.MessageId)}, nil
}
