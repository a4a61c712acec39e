package smtp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	netsmtp "net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/phrazzld/inkwell-api/internal/config"
	"github.com/phrazzld/inkwell-api/internal/mail"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
)

// sendFunc matches the signature of net/smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a netsmtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers messages through an SMTP server.
type Mailer struct {
	addr       string
	host       string
	username   string
	password   string
	from       string
	maxRetries int
	baseDelay  time.Duration
	send       sendFunc
	logger     *slog.Logger
}

var _ mail.Mailer = (*Mailer)(nil)

// NewMailer creates a Mailer from the mail configuration. Invalid retry
// settings fall back to three retries with a two second base delay. AUTH
// PLAIN is used when a username is configured.
func NewMailer(cfg config.MailConfig) *Mailer {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	delaySeconds := cfg.RetryDelaySeconds
	if delaySeconds < 1 {
		delaySeconds = 2
	}

	return &Mailer{
		addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:       cfg.Host,
		username:   cfg.Username,
		password:   cfg.Password,
		from:       cfg.FromAddress,
		maxRetries: maxRetries,
		baseDelay:  time.Duration(delaySeconds) * time.Second,
		send:       netsmtp.SendMail,
		logger:     slog.Default().With(slog.String("component", "smtp_mailer")),
	}
}

// Send delivers the message, retrying transient failures with exponential
// backoff and jitter. Permanent failures (5xx replies) and exhausted retries
// both surface as mail.ErrSendFailed.
func (m *Mailer) Send(ctx context.Context, msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, m.logger)
	payload := m.buildPayload(msg)

	var auth netsmtp.Auth
	if m.username != "" {
		auth = netsmtp.PlainAuth("", m.username, m.password, m.host)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		err := m.send(m.addr, auth, m.from, []string{msg.To}, payload)
		if err == nil {
			if attempt > 0 {
				log.InfoContext(ctx, "email delivered after retry",
					slog.String("to", msg.To),
					slog.Int("attempt", attempt+1))
			}
			return nil
		}
		lastErr = err

		if isPermanent(err) {
			log.WarnContext(ctx, "permanent SMTP failure, not retrying",
				slog.String("to", msg.To),
				slog.String("error", err.Error()))
			return fmt.Errorf("%w: %v", mail.ErrSendFailed, err)
		}

		if attempt >= m.maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(m.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		log.WarnContext(ctx, "transient SMTP failure, retrying",
			slog.String("to", msg.To),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			log.WarnContext(ctx, "email delivery cancelled during retry delay",
				slog.String("to", msg.To),
				slog.String("error", ctx.Err().Error()))
			return fmt.Errorf("%w: %v", mail.ErrSendFailed, ctx.Err())
		}
	}

	log.ErrorContext(ctx, "email delivery failed",
		slog.String("to", msg.To),
		slog.Int("attempts", m.maxRetries+1),
		slog.String("error", lastErr.Error()))
	return fmt.Errorf("%w: exceeded %d attempts: %v", mail.ErrSendFailed, m.maxRetries+1, lastErr)
}

// buildPayload assembles the RFC 5322 wire form: headers, blank line, body.
func (m *Mailer) buildPayload(msg mail.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// isPermanent reports whether err is a 5xx SMTP reply. Anything else,
// including network errors and 4xx replies, is treated as transient.
func isPermanent(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 500 && protoErr.Code < 600
	}
	return false
}
