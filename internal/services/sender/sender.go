// Package sender отправляет почтовые уведомления из очередей брокера.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/lib/smtp"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// Service читает уведомления из очередей и отправляет их по SMTP.
type Service struct {
	transport  smtp.TransportInterface
	log        *slog.Logger
	adminEmail string
}

// New создает сервис отправки уведомлений. adminEmail — адрес,
// на который уходят административные сводки.
func New(log *slog.Logger, transport smtp.TransportInterface, adminEmail string) *Service {
	return &Service{
		transport:  transport,
		log:        log,
		adminEmail: adminEmail,
	}
}

// SendUserNotification отправляет уведомление пользователю на его почту.
func (s *Service) SendUserNotification(body []byte) error {
	var msg models.UserNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal user notification", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\n%s", msg.Username, msg.Body)
	return s.sendEmail([]string{msg.Email}, msg.Title, bodyText)
}

// SendAdminNotification отправляет административную сводку.
func (s *Service) SendAdminNotification(body []byte) error {
	var msg models.AdminNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal admin notification", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return s.sendEmail([]string{s.adminEmail}, msg.Title, msg.Body)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
