package clients

import (
	"context"
	"errors"
	"fmt"

	"shoplit/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var _ domain.SmsSender = (*TwilioSender)(nil)

var ErrSMSNotConfigured = errors.New("sms provider is not configured")

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioSender struct {
	api  messageCreator
	from string
	log  *logrus.Logger
}

func NewTwilioSender(accountSID, authToken, from string, logger *logrus.Logger) *TwilioSender {
	sender := &TwilioSender{from: from, log: logger}
	if accountSID == "" || authToken == "" {
		logger.Warn("SMS: Twilio credentials missing, SMS delivery disabled")
		return sender
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	sender.api = client.Api
	return sender
}

// SendSMS returns the provider message SID.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	if s.api == nil || s.from == "" {
		return "", ErrSMSNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.log.Errorf("SMS: Failed to send message to %s: %v", to, err)
		return "", fmt.Errorf("twilio create message: %w", err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.log.Infof("SMS: Sent message to %s (sid %s)", to, sid)
	return sid, nil
}
