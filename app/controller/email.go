package controller

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/dto"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/service"
)

// EmailPublisher submits a job to the channel and returns the channel's message ID.
type EmailPublisher interface {
	Publish(ctx context.Context, j job.EmailJob) (string, error)
}

type EmailController struct {
	producer EmailPublisher
	logger   logrus.FieldLogger
}

// NewEmailController constructs the HTTP email controller.
func NewEmailController(producer EmailPublisher, logger logrus.FieldLogger) *EmailController {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EmailController{producer: producer, logger: logger}
}

// SendEmail validates and enqueues an email send request.
func (c *EmailController) SendEmail(ctx echo.Context) error {
	req, err := dto.FromEchoContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	reqCtx := ctx.Request().Context()
	if requestID := requestIDOf(ctx); requestID != "" {
		reqCtx = service.WithRequestID(reqCtx, requestID)
	}

	messageID, err := c.producer.Publish(reqCtx, req.Job())
	if err != nil {
		c.logger.WithError(err).Error("failed to queue email")
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "failed to queue email"})
	}

	return ctx.JSON(http.StatusAccepted, map[string]string{"message_id": messageID})
}

// requestIDOf prefers the caller's header and falls back to the one the
// request ID middleware put on the response.
func requestIDOf(ctx echo.Context) string {
	if id := ctx.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return ctx.Response().Header().Get(echo.HeaderXRequestID)
}
