package controller

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/service"
)

type mockPublisher struct {
	err        error
	jobs       []job.EmailJob
	requestIDs []string
}

func (p *mockPublisher) Publish(ctx context.Context, j job.EmailJob) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	requestID, _ := service.RequestIDFromContext(ctx)
	p.jobs = append(p.jobs, j)
	p.requestIDs = append(p.requestIDs, requestID)
	return "msg-1", nil
}

func newController(pub *mockPublisher) *EmailController {
	logger, _ := test.NewNullLogger()
	return NewEmailController(pub, logger)
}

func doSendEmail(t *testing.T, ctrl *EmailController, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/email/send", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	if err := ctrl.SendEmail(e.NewContext(req, rec)); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	return rec
}

func TestEmailControllerSendEmailAccepted(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	rec := doSendEmail(t, newController(pub), `{"to":"a@b.com","subject":"Hi","body":"<b>hi</b>"}`, map[string]string{echo.HeaderXRequestID: "req-1"})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message_id":"msg-1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	want := job.EmailJob{To: "a@b.com", Subject: "Hi", Body: "<b>hi</b>"}
	if len(pub.jobs) != 1 || pub.jobs[0] != want {
		t.Fatalf("expected published %+v, got %+v", want, pub.jobs)
	}
	if pub.requestIDs[0] != "req-1" {
		t.Fatalf("expected request id req-1, got %q", pub.requestIDs[0])
	}
}

func TestEmailControllerSendEmailInvalidBody(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	rec := doSendEmail(t, newController(pub), `{"to":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(pub.jobs) != 0 {
		t.Fatalf("expected nothing published")
	}
}

func TestEmailControllerSendEmailValidationError(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	rec := doSendEmail(t, newController(pub), `{"to":"not-an-email","subject":"Hi","body":"x"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "valid email") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestEmailControllerSendEmailPublishFailure(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{err: errors.New("unreachable")}
	rec := doSendEmail(t, newController(pub), `{"to":"a@b.com","subject":"Hi","body":"x"}`, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
