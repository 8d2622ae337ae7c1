package preparer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
)

// HTMLPreparer renders a single-part text/html MIME message.
type HTMLPreparer struct{}

// NewHTMLPreparer creates the HTML MIME step.
func NewHTMLPreparer() *HTMLPreparer {
	return &HTMLPreparer{}
}

// Prepare writes headers and a quoted-printable HTML body into msg.Raw.
func (p *HTMLPreparer) Prepare(_ context.Context, msg *Message) error {
	if strings.TrimSpace(msg.From) == "" {
		return fmt.Errorf("source email is required")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.ContainsAny(msg.From+msg.To+msg.Subject, "\r\n") {
		return fmt.Errorf("headers contain invalid characters")
	}

	var b bytes.Buffer
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	b.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&b)
	if _, err := qp.Write([]byte(msg.HTML)); err != nil {
		return fmt.Errorf("encode html body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("encode html body: %w", err)
	}

	msg.Raw = b.Bytes()
	return nil
}
