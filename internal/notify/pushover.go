package notify

import (
	"fmt"
	"strings"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"
)

const PriorityHigh = 1

type Notifier struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	logger    logrus.FieldLogger
}

func NewNotifier(token, userKey string, logger logrus.FieldLogger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

func (n *Notifier) send(msg *pushover.Message) error {
	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("sending pushover notification: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      msg.Title,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Debug("notification sent")

	return nil
}

// SendBookingConfirmed tells the user a booking awaits payment and links to it.
func (n *Notifier) SendBookingConfirmed(train string, seats []string, paymentURL string) error {
	msg := bookingConfirmedMessage(train, seats, paymentURL)
	msg.Priority = PriorityHigh
	return n.send(msg)
}

// SendRollback reports a failed booking and what happened to its seats.
func (n *Notifier) SendRollback(train string, released, failed int, cause string) error {
	msg := rollbackMessage(train, released, failed, cause)
	msg.Priority = PriorityHigh
	return n.send(msg)
}

func bookingConfirmedMessage(train string, seats []string, paymentURL string) *pushover.Message {
	body := fmt.Sprintf("Train %s: %d seat(s) held (%s).\nComplete payment before the hold expires.",
		train, len(seats), strings.Join(seats, ", "))
	msg := pushover.NewMessageWithTitle(body, "Booking Confirmed")
	msg.URL = paymentURL
	msg.URLTitle = "Pay now"
	return msg
}

func rollbackMessage(train string, released, failed int, cause string) *pushover.Message {
	if train == "" {
		train = "unknown train"
	}
	body := fmt.Sprintf("Booking on %s failed: %s\nReleased %d seat(s).", train, cause, released)
	if failed > 0 {
		body += fmt.Sprintf(" %d seat(s) could NOT be released and may stay held.", failed)
	}
	return pushover.NewMessageWithTitle(body, "Booking Rolled Back")
}
