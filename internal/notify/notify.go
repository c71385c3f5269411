package notify

import (
	"fmt"
	"net/smtp"

	"github.com/binwin/binwin-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPickupReminder reminds a user about a pickup accepted for the
// given date.
func (s *Sender) SendPickupReminder(to, username, companyName, date, timeOfDay string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Upcoming Waste Pickup Reminder"

	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	body += fmt.Sprintf(
		"This is a reminder that %s will collect your recyclable waste on %s at %s.\n"+
			"Please keep your sorted waste ready for pickup.\n",
		companyName, date, timeOfDay,
	)
	body += "\nBest regards,\nBinWin"
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendScheduleProposed notifies a user that a company has proposed a
// new pickup.
func (s *Sender) SendScheduleProposed(to, username, companyName, date, timeOfDay string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "New Pickup Proposal"

	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	body += fmt.Sprintf(
		"%s has proposed to pick up your recyclable waste on %s at %s.\n"+
			"Open the BinWin app to accept the pickup or request another date.\n",
		companyName, date, timeOfDay,
	)
	body += "\nBest regards,\nBinWin"
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
