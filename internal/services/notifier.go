package services

import (
	"math"

	"github.com/sirupsen/logrus"
)

// AlertNotifier turns scoring events into SMS alerts for a single
// configured recipient. Events below the point threshold stay on the
// websocket feed only.
type AlertNotifier struct {
	sms       SMSService
	recipient string
	threshold float64
	logger    *logrus.Logger
}

// NewAlertNotifier creates a notifier. An empty recipient disables SMS
// alerts entirely.
func NewAlertNotifier(sms SMSService, recipient string, threshold float64, logger *logrus.Logger) *AlertNotifier {
	return &AlertNotifier{
		sms:       sms,
		recipient: recipient,
		threshold: threshold,
		logger:    logger,
	}
}

// Notify sends an SMS for each event at or above the threshold. Send
// failures, including rate limiting, are logged and swallowed; a failed
// alert never affects the poll cycle.
func (n *AlertNotifier) Notify(events []ScoringEvent) {
	if n.recipient == "" || n.sms == nil {
		return
	}

	for _, event := range events {
		if math.Abs(event.Delta) < n.threshold {
			continue
		}

		if err := n.sms.SendMessage(n.recipient, event.Describe()); err != nil {
			n.logger.WithFields(logrus.Fields{
				"player_id": event.PlayerID,
				"delta":     event.Delta,
			}).Warnf("Failed to send scoring alert: %v", err)
			continue
		}

		n.logger.WithFields(logrus.Fields{
			"player_id": event.PlayerID,
			"delta":     event.Delta,
		}).Info("Sent scoring alert")
	}
}
