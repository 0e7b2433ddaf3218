package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMSService implements SMSService using the Twilio API.
type TwilioSMSService struct {
	client         *twilio.RestClient
	fromNumber     string
	logger         *logrus.Logger
	circuitBreaker *simpleCircuitBreaker
	rateLimiter    RateLimiter
}

// RateLimiter caps per-recipient alert volume.
type RateLimiter interface {
	Allow(phoneNumber string) error
}

// simpleCircuitBreaker guards the Twilio API; a run of failures stops
// outgoing calls until the timeout passes.
type simpleCircuitBreaker struct {
	failures    int
	lastFailure time.Time
	threshold   int
	timeout     time.Duration
	state       string // "closed", "open", "half-open"
}

func newSimpleCircuitBreaker(threshold int, timeout time.Duration) *simpleCircuitBreaker {
	return &simpleCircuitBreaker{
		threshold: threshold,
		timeout:   timeout,
		state:     "closed",
	}
}

func (cb *simpleCircuitBreaker) State() string {
	if cb.state == "open" && time.Since(cb.lastFailure) > cb.timeout {
		cb.state = "half-open"
	}
	return cb.state
}

func (cb *simpleCircuitBreaker) Allow() bool {
	return cb.State() != "open"
}

func (cb *simpleCircuitBreaker) RecordSuccess() {
	cb.failures = 0
	cb.state = "closed"
}

func (cb *simpleCircuitBreaker) RecordFailure() {
	cb.failures++
	cb.lastFailure = time.Now()
	if cb.failures >= cb.threshold {
		cb.state = "open"
	}
}

// NewTwilioSMSService creates a new Twilio SMS service.
func NewTwilioSMSService(accountSID, authToken, fromNumber string, rateLimiter RateLimiter, logger *logrus.Logger) *TwilioSMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSService{
		client:         client,
		fromNumber:     fromNumber,
		logger:         logger,
		circuitBreaker: newSimpleCircuitBreaker(5, 30*time.Second),
		rateLimiter:    rateLimiter,
	}
}

// SendMessage sends an SMS message via Twilio.
func (s *TwilioSMSService) SendMessage(phoneNumber, message string) error {
	if !s.circuitBreaker.Allow() {
		s.logger.Warn("Twilio SMS: circuit breaker is open, rejecting request")
		return fmt.Errorf("SMS service temporarily unavailable")
	}

	normalizedNumber, err := s.normalizePhoneNumber(phoneNumber)
	if err != nil {
		return fmt.Errorf("invalid phone number format: %w", err)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Allow(normalizedNumber); err != nil {
			s.logger.Warnf("Twilio SMS: rate limited for %s", normalizedNumber)
			return fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(normalizedNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(message)

	s.logger.Debugf("Twilio SMS: sending to %s", normalizedNumber)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		s.circuitBreaker.RecordFailure()
		s.logger.Errorf("Twilio SMS: API error: %v", err)
		return s.mapTwilioError(err)
	}

	s.circuitBreaker.RecordSuccess()

	if resp.Sid != nil {
		s.logger.Debugf("Twilio SMS: message sent (SID: %s)", *resp.Sid)
	}

	return nil
}

// normalizePhoneNumber ensures the phone number is in E.164 format.
func (s *TwilioSMSService) normalizePhoneNumber(phone string) (string, error) {
	re := regexp.MustCompile(`[^\d+]`)
	cleaned := re.ReplaceAllString(phone, "")

	if !regexp.MustCompile(`^\+`).MatchString(cleaned) {
		// Assume US number if no country code.
		if regexp.MustCompile(`^\d{10}$`).MatchString(cleaned) {
			cleaned = "+1" + cleaned
		} else {
			return "", fmt.Errorf("invalid phone number format")
		}
	}

	if !regexp.MustCompile(`^\+[1-9]\d{1,14}$`).MatchString(cleaned) {
		return "", fmt.Errorf("invalid phone number format")
	}

	return cleaned, nil
}

// mapTwilioError maps Twilio-specific errors to user-friendly messages.
func (s *TwilioSMSService) mapTwilioError(err error) error {
	errStr := err.Error()

	switch {
	case regexp.MustCompile(`(?i)invalid.*phone.*number`).MatchString(errStr):
		return fmt.Errorf("invalid phone number")
	case regexp.MustCompile(`(?i)unverified.*number`).MatchString(errStr):
		return fmt.Errorf("phone number not verified for trial account")
	case regexp.MustCompile(`(?i)insufficient.*funds`).MatchString(errStr):
		return fmt.Errorf("SMS service temporarily unavailable")
	case regexp.MustCompile(`(?i)rate.*limit`).MatchString(errStr):
		return fmt.Errorf("too many SMS requests, please try again later")
	case regexp.MustCompile(`(?i)blocked.*number`).MatchString(errStr):
		return fmt.Errorf("unable to send SMS to this number")
	default:
		return fmt.Errorf("failed to send SMS: %w", err)
	}
}

// GetStats returns circuit breaker and service statistics.
func (s *TwilioSMSService) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"circuit_breaker_state": s.circuitBreaker.State(),
		"service_type":          "twilio",
	}
}
