package services

import (
	"github.com/sirupsen/logrus"
)

// SMSService sends text messages. Scoring alerts go through this interface
// so local development never touches a paid provider.
type SMSService interface {
	SendMessage(phoneNumber, message string) error
}

// MockSMSService logs messages instead of sending real SMS.
type MockSMSService struct {
	logger *logrus.Logger
}

func NewMockSMSService(logger *logrus.Logger) *MockSMSService {
	return &MockSMSService{logger: logger}
}

func (s *MockSMSService) SendMessage(phoneNumber, message string) error {
	s.logger.WithFields(logrus.Fields{
		"to": phoneNumber,
	}).Infof("MOCK SMS: %s", message)
	return nil
}
