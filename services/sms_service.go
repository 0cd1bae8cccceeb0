package services

import (
	"errors"

	"cliently-backend/config"
	"cliently-backend/utils"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrSMSNotConfigured is returned when Twilio credentials or the sending
// number are missing from the environment.
var ErrSMSNotConfigured = errors.New("SMS provider is not configured")

// SMSResult carries the provider identifiers for an accepted message.
type SMSResult struct {
	MessageSID string
	Status     string
}

// SMSSender sends one text message. Implementations normalize the
// destination number themselves so callers can pass numbers as stored.
type SMSSender interface {
	SendSMS(to, body string) (*SMSResult, error)
	Configured() bool
}

// TwilioSender is the production SMSSender.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender from the loaded configuration. With
// credentials missing it still constructs, but Configured reports false and
// every send fails with ErrSMSNotConfigured.
func NewTwilioSender() *TwilioSender {
	cfg := config.AppConfig
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		return &TwilioSender{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioSender{client: client, from: cfg.TwilioFromNumber}
}

func (s *TwilioSender) Configured() bool {
	return s.client != nil && s.from != ""
}

func (s *TwilioSender) SendSMS(to, body string) (*SMSResult, error) {
	if !s.Configured() {
		return nil, ErrSMSNotConfigured
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(utils.NormalizePhone(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return nil, err
	}

	result := &SMSResult{}
	if resp.Sid != nil {
		result.MessageSID = *resp.Sid
	}
	if resp.Status != nil {
		result.Status = *resp.Status
	}
	return result, nil
}
