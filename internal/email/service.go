package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/glucolog/glucolog-api/internal/model"
)

type Service interface {
	SendWelcome(to, name string) error
	SendDueReminder(to string, reminder *model.Reminder) error
	SendLowStockAlert(to string, item *model.InventoryItem) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendWelcome(to, name string) error {
	body := fmt.Sprintf("Hi %s,<br><br>Your glucose diary is ready. Log your first reading to get started.", name)
	return s.send(to, "Welcome to Glucolog", body)
}

func (s *smtpService) SendDueReminder(to string, reminder *model.Reminder) error {
	body := fmt.Sprintf(
		"Time for your post-meal check.<br><br>Reading: %s on %s, %.0f mg/dL before the meal.",
		reminder.Record.Period, reminder.Record.Date, reminder.Record.Glucose,
	)
	return s.send(to, "Post-meal glucose check", body)
}

func (s *smtpService) SendLowStockAlert(to string, item *model.InventoryItem) error {
	body := fmt.Sprintf(
		"%s is running low: %.0f %s left (threshold %.0f). Consider restocking.",
		item.Name, item.Quantity, item.Unit, item.Threshold,
	)
	return s.send(to, fmt.Sprintf("%s is running low", item.Name), body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
