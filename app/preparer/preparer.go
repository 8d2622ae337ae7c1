package preparer

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
)

// EmailPreparer turns a job into a raw MIME message.
type EmailPreparer interface {
	Prepare(ctx context.Context, j job.EmailJob) ([]byte, error)
}

// Message is the state passed between preparer steps.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Raw     []byte
}

type Step interface {
	Prepare(ctx context.Context, msg *Message) error
}

type Chain struct {
	from  string
	steps []Step
}

// NewChain builds an email preparer chain that sends from the given address.
func NewChain(from string, steps ...Step) *Chain {
	return &Chain{from: from, steps: steps}
}

// Prepare runs all preparer steps and returns the final raw message.
func (c *Chain) Prepare(ctx context.Context, j job.EmailJob) ([]byte, error) {
	msg := &Message{
		From:    c.from,
		To:      j.To,
		Subject: j.Subject,
		HTML:    j.Body,
	}

	for _, step := range c.steps {
		if err := step.Prepare(ctx, msg); err != nil {
			return nil, err
		}
	}

	if len(msg.Raw) == 0 {
		return nil, fmt.Errorf("prepared raw message is empty")
	}

	return msg.Raw, nil
}
