package message

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"github.com/skybi/restkit/internal/contact"
)

// MinRecipientLength is the minimum length of a recipient ('a@b.c')
const MinRecipientLength = 5

// The result messages a dispatch may produce
const (
	ResultSent   = "Message sent successfully!"
	ResultFailed = "Message sending failed!"
)

var (
	// ErrNoMailer is returned if a dispatcher is used without a mail transport
	ErrNoMailer = errors.New("no mail transport configured")

	// ErrNoSender is returned if a dispatcher is used without a sender address
	ErrNoSender = errors.New("no sender address configured")

	// ErrNoRecipient is returned if a message has no recipient at all
	ErrNoRecipient = errors.New("no recipient to send message")

	// ErrInvalidRecipient is returned if the first recipient is too short to be an email or mobile number
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrMixedRecipients is returned if a message addresses both email addresses and mobile numbers
	ErrMixedRecipients = errors.New("all recipients should be of the same type")

	// ErrInvalidFallback is returned if a fallback address is no valid email address
	ErrInvalidFallback = errors.New("invalid fallback email")

	errNoSMSTransport  = errors.New("no SMS transport configured")
	errNoFallbackEmail = errors.New("no fallback email provided")
)

// Message represents a message that should be sent either via email or via SMS
type Message struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body" validate:"required"`
	HTMLBody   string   `json:"html_body,omitempty"`
	Recipients []string `json:"recipients"`
	Fallback   []string `json:"fallback,omitempty"`
}

// Mail represents a single email handed to a Mailer
type Mail struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// SMS represents a single text message handed to an SMSSender
type SMS struct {
	To   []string
	Body string
}

// Mailer sends emails
type Mailer interface {
	SendMail(ctx context.Context, mail Mail) error
}

// SMSSender sends text messages
type SMSSender interface {
	SendSMS(ctx context.Context, sms SMS) error
}

// Result describes the outcome of a dispatch
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func sent() *Result {
	return &Result{Success: true, Message: ResultSent}
}

func failed(err error) *Result {
	return &Result{Success: false, Message: fmt.Sprintf("%s (%s)", ResultFailed, err.Error())}
}

// Dispatcher routes messages to the correct transport.
// Messages to email addresses are mailed directly; messages to mobile numbers are sent via SMS and mailed to the
// fallback addresses if that fails.
type Dispatcher struct {
	Mailer Mailer
	SMS    SMSSender
	From   string
}

// Send validates and dispatches a message.
// Invalid messages or a misconfigured dispatcher result in an error; transport failures are reported in the result.
func (dispatcher *Dispatcher) Send(ctx context.Context, message Message) (*Result, error) {
	if dispatcher.Mailer == nil {
		return nil, ErrNoMailer
	}
	if dispatcher.From == "" {
		return nil, ErrNoSender
	}

	recipients, email, err := classify(message.Recipients)
	if err != nil {
		return nil, err
	}
	for _, address := range message.Fallback {
		if !contact.ValidateEmail(address) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFallback, address)
		}
	}

	logger := log.With().Str("component", "message").Int("recipients", len(recipients)).Logger()

	if email {
		if err := dispatcher.mail(ctx, message, recipients); err != nil {
			logger.Warn().Err(err).Msg("Could not send email")
			return failed(err), nil
		}
		return sent(), nil
	}

	err = errNoSMSTransport
	if dispatcher.SMS != nil {
		err = dispatcher.SMS.SendSMS(ctx, SMS{To: recipients, Body: message.Body})
	}
	if err == nil {
		return sent(), nil
	}
	logger.Warn().Err(err).Msg("Could not send SMS; falling back to email")

	if len(message.Fallback) == 0 {
		return failed(fmt.Errorf("%v; %w", err, errNoFallbackEmail)), nil
	}
	if err := dispatcher.mail(ctx, message, message.Fallback); err != nil {
		logger.Warn().Err(err).Msg("Could not send fallback email")
		return failed(err), nil
	}
	return sent(), nil
}

func (dispatcher *Dispatcher) mail(ctx context.Context, message Message, to []string) error {
	return dispatcher.Mailer.SendMail(ctx, Mail{
		From:     dispatcher.From,
		To:       to,
		Subject:  message.Subject,
		Body:     message.Body,
		HTMLBody: message.HTMLBody,
	})
}

// classify checks that all recipients are of the same kind and normalizes mobile numbers.
// The returned slice never aliases the input.
func classify(recipients []string) ([]string, bool, error) {
	if len(recipients) == 0 {
		return nil, false, ErrNoRecipient
	}
	if len(recipients[0]) < MinRecipientLength {
		return nil, false, ErrInvalidRecipient
	}

	email := contact.ValidateEmail(recipients[0])
	out := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		if contact.ValidateEmail(recipient) != email {
			return nil, false, ErrMixedRecipients
		}
		if !email {
			recipient = contact.NormalizeMobile(recipient)
		}
		out = append(out, recipient)
	}
	return out, email, nil
}
