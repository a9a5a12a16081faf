package impl

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Addr     string // host:port; empty disables sending
	Username string
	Password string
	Sender   string
}

// SMTPEmailService delivers mail over a plain SMTP relay. When unconfigured it
// logs and drops, so local setups work without a mail server.
type SMTPEmailService struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPEmailService(cfg SMTPConfig) *SMTPEmailService {
	return &SMTPEmailService{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPEmailService) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nThank you for registering on FarmLink! We're excited to have you on board.\n\nBest regards,\nThe FarmLink Team", name)
	return s.deliver(to, "Welcome to FarmLink", body)
}

func (s *SMTPEmailService) SendVerificationCode(ctx context.Context, to, name, code string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour account verification code is: %s\nIt is valid for 10 minutes.\n\nIf you did not request this, please ignore this email.\n\nBest regards,\nThe FarmLink Team", name, code)
	return s.deliver(to, "Your Account Verification Code", body)
}

func (s *SMTPEmailService) deliver(to, subject, body string) error {
	if s.cfg.Addr == "" || s.cfg.Sender == "" {
		slog.Debug("smtp not configured, skipping email", "to", to, "subject", subject)
		return nil
	}
	host := s.cfg.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.cfg.Sender, to, subject, body)
	return s.send(s.cfg.Addr, auth, s.cfg.Sender, []string{to}, []byte(msg))
}
