// File: internal/notification/email.go
package notification

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"apt_briefing_backend/internal/config"

	"go.uber.org/zap"
)

// EmailChannel delivers alerts over SMTP. When SMTP_USE_TLS is set the
// session is upgraded with STARTTLS before anything else is sent, and a
// server that cannot negotiate it fails the delivery.
type EmailChannel struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEmailChannel creates an SMTP-backed channel.
func NewEmailChannel(cfg *config.Config, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{cfg: cfg, logger: logger}
}

func (c *EmailChannel) Name() string {
	return ChannelEmail
}

func (c *EmailChannel) Send(dest, subject, body string) (bool, string) {
	if !c.cfg.SMTPEnabled {
		return false, "email channel is disabled"
	}
	if c.cfg.SMTPHost == "" || c.cfg.SMTPSenderEmail == "" {
		return false, "smtp is not configured"
	}
	if dest == "" {
		return false, "no destination address"
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	msg := buildMIMEMessage(c.cfg.SMTPSenderEmail, dest, subject, body)

	if err := c.deliver(addr, dest, msg); err != nil {
		c.logger.Warn("Email delivery failed", zap.String("dest", dest), zap.Error(err))
		return false, err.Error()
	}
	return true, ""
}

func (c *EmailChannel) deliver(addr, dest string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if c.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: c.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if c.cfg.SMTPUsername != "" {
		auth := smtp.PlainAuth("", c.cfg.SMTPUsername, c.cfg.SMTPPassword, c.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(c.cfg.SMTPSenderEmail); err != nil {
		return err
	}
	if err := client.Rcpt(dest); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMIMEMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
