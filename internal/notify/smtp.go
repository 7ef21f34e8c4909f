package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/domodwyer/mailyak/v3"
)

type smtpPreset struct {
	host string
	port int
}

// Well-known providers selectable through EMAIL_SERVICE.
var smtpPresets = map[string]smtpPreset{
	"gmail":   {host: "smtp.gmail.com", port: 587},
	"outlook": {host: "smtp-mail.outlook.com", port: 587},
	"hotmail": {host: "smtp-mail.outlook.com", port: 587},
	"yahoo":   {host: "smtp.mail.yahoo.com", port: 465},
}

type SMTPConfig struct {
	Service  string
	Host     string
	Port     int
	Username string
	Password string
	FromName string
}

// Resolve fills Host and Port from Service when they are not set explicitly.
func (c SMTPConfig) Resolve() (SMTPConfig, error) {
	if c.Host == "" {
		service := strings.ToLower(strings.TrimSpace(c.Service))
		if service == "" {
			service = "gmail"
		}
		preset, ok := smtpPresets[service]
		if !ok {
			return c, fmt.Errorf("unknown email service %q", c.Service)
		}
		c.Host = preset.host
		if c.Port == 0 {
			c.Port = preset.port
		}
	}
	if c.Port == 0 {
		c.Port = 587
	}
	if c.Username == "" {
		return c, errors.New("smtp username is required")
	}
	return c, nil
}

type SMTPMailer struct {
	cfg     SMTPConfig
	addr    string
	auth    smtp.Auth
	newMail func() (*mailyak.MailYak, error)
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	m := &SMTPMailer{
		cfg:  resolved,
		addr: net.JoinHostPort(resolved.Host, strconv.Itoa(resolved.Port)),
		auth: smtp.PlainAuth("", resolved.Username, resolved.Password, resolved.Host),
	}

	// Port 465 speaks TLS from the first byte; the others upgrade with STARTTLS.
	if resolved.Port == 465 {
		tlsConfig := &tls.Config{ServerName: resolved.Host, MinVersion: tls.VersionTLS12}
		m.newMail = func() (*mailyak.MailYak, error) {
			return mailyak.NewWithTLS(m.addr, m.auth, tlsConfig)
		}
	} else {
		m.newMail = func() (*mailyak.MailYak, error) {
			return mailyak.New(m.addr, m.auth), nil
		}
	}

	return m, nil
}

func (m *SMTPMailer) From() string {
	return fmt.Sprintf("%q <%s>", m.cfg.FromName, m.cfg.Username)
}

// Send blocks until the server accepts the message or ctx ends. mailyak has no
// context support, so an abandoned send finishes in the background.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	mail, err := m.newMail()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	mail.To(to)
	mail.From(m.cfg.Username)
	mail.FromName(m.cfg.FromName)
	mail.Subject(subject)
	mail.HTML().Set(html)

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send via %s: %w", m.addr, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
