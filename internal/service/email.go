package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

type emailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailService(host string, port int, username, password, from string) EmailService {
	return &emailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

func (s *emailService) SendBookingIssuedNotification(ctx context.Context, email, customerName, productName string, remaining decimal.Decimal) error {
	body := fmt.Sprintf("Hello %s,\n\nYour rental of %s has been handed over.\n\nRemaining balance: %s.\n\nBest regards,\nThe RentDesk Team",
		customerName, productName, remaining.StringFixed(2))
	return s.send(email, fmt.Sprintf("Rental issued: %s", productName), body)
}

func (s *emailService) SendBookingReturnedNotification(ctx context.Context, email, customerName, productName string) error {
	body := fmt.Sprintf("Hello %s,\n\nThank you for returning %s. Your rental is now complete.\n\nBest regards,\nThe RentDesk Team",
		customerName, productName)
	return s.send(email, fmt.Sprintf("Rental returned: %s", productName), body)
}

func (s *emailService) SendBookingCancelledNotification(ctx context.Context, email, customerName, productName string, refunded, pending decimal.Decimal) error {
	body := fmt.Sprintf("Hello %s,\n\nYour booking for %s has been cancelled.\n\nRefunded now: %s\nStill owed to you: %s\n\nBest regards,\nThe RentDesk Team",
		customerName, productName, refunded.StringFixed(2), pending.StringFixed(2))
	return s.send(email, fmt.Sprintf("Booking cancelled: %s", productName), body)
}

func (s *emailService) SendOverdueReminder(ctx context.Context, email, customerName, productName string, dueOn time.Time) error {
	body := fmt.Sprintf("Hello %s,\n\nThis is a reminder that %s was due back on %s. Please return it as soon as possible.\n\nBest regards,\nThe RentDesk Team",
		customerName, productName, dueOn.Format("2006-01-02 15:04"))
	return s.send(email, fmt.Sprintf("Return overdue: %s", productName), body)
}
