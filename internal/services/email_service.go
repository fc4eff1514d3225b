package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationEmail(ctx context.Context, email, username, code string) error
}

type emailService struct {
	send   func(m *gomail.Message) error
	from   string
	appURL string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, appURL string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		send:   func(m *gomail.Message) error { return dialer.DialAndSend(m) },
		from:   fromEmail,
		appURL: strings.TrimRight(appURL, "/"),
	}
}

// newEmailServiceWithSender wires an arbitrary gomail.Sender (tests, relays).
func newEmailServiceWithSender(sender gomail.Sender, fromEmail, appURL string) *emailService {
	return &emailService{
		send:   func(m *gomail.Message) error { return gomail.Send(sender, m) },
		from:   fromEmail,
		appURL: strings.TrimRight(appURL, "/"),
	}
}

func (s *emailService) verifyLink(username string) string {
	return fmt.Sprintf("%s/verify/%s", s.appURL, url.PathEscape(username))
}

func (s *emailService) SendVerificationEmail(ctx context.Context, email, username, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Mystery Message | Verification code")

	body := fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Thank you for registering. Please use the following verification code to complete your registration:</p>
		<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
		<p>The code expires in 10 minutes. If you did not request this code, please ignore this email.</p>
		<p><a href="%s">Verify your account</a></p>
	`, html.EscapeString(username), code, html.EscapeString(s.verifyLink(username)))

	m.SetBody("text/plain", fmt.Sprintf("Hello %s,\n\nyour verification code is %s. It expires in 10 minutes.\n\n%s\n",
		username, code, s.verifyLink(username)))
	m.AddAlternative("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// logEmailService never touches SMTP; it prints the code to the log. Used when
// email.dry_run is set or no SMTP host is configured.
type logEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(logger *slog.Logger) EmailService {
	return &logEmailService{logger: logger}
}

func (s *logEmailService) SendVerificationEmail(ctx context.Context, email, username, code string) error {
	s.logger.InfoContext(ctx, "verification code issued (dry-run email)",
		"email", email,
		"username", username,
		"code", code,
	)
	return nil
}
