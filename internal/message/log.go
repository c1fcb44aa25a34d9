package message

import (
	"context"
	"github.com/rs/zerolog/log"
)

// LogTransport implements both Mailer and SMSSender by writing every message to the log.
// It is used when no real transport is configured.
type LogTransport struct{}

var (
	_ Mailer    = LogTransport{}
	_ SMSSender = LogTransport{}
)

// SendMail logs the given mail
func (LogTransport) SendMail(_ context.Context, mail Mail) error {
	log.Info().
		Str("component", "message").
		Str("from", mail.From).
		Strs("to", mail.To).
		Str("subject", mail.Subject).
		Str("body", mail.Body).
		Msg("Mail")
	return nil
}

// SendSMS logs the given text message
func (LogTransport) SendSMS(_ context.Context, sms SMS) error {
	log.Info().
		Str("component", "message").
		Strs("to", sms.To).
		Str("body", sms.Body).
		Msg("SMS")
	return nil
}
