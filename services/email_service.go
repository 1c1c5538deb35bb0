package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	emailSendTimeout = 30 * time.Second
	emailSubject     = "Your Unique Therapii Connection Code"
	supportEmail     = "support@therapii.com"
)

// EmailConfigError reports a delivery rejection that no retry can fix:
// the stored credentials or sender are wrong. Creation compensates on it.
type EmailConfigError struct {
	Status int
	Body   string
}

func (e *EmailConfigError) Error() string {
	return fmt.Sprintf("sendgrid rejected the request (status %d): %s", e.Status, e.Body)
}

// EmailService delivers invitation codes via SendGrid. Delivery is
// best-effort: transient failures are logged and reported as not-sent,
// never surfaced to the caller.
type EmailService struct {
	Settings *SettingsService

	// send is overridable in tests.
	send func(ctx context.Context, apiKey string, msg *mail.SGMailV3) (*rest.Response, error)
}

func (s *EmailService) sendMail(ctx context.Context, apiKey string, msg *mail.SGMailV3) (*rest.Response, error) {
	if s.send != nil {
		return s.send(ctx, apiKey, msg)
	}
	return sendgrid.NewSendClient(apiKey).SendWithContext(ctx, msg)
}

// SendInvitationCode emails the connection code to the patient. Returns
// whether the email went out; the only error returned is an
// *EmailConfigError for credential/sender rejections.
func (s *EmailService) SendInvitationCode(ctx context.Context, toEmail, code, firstName string) (bool, error) {
	cfg := s.Settings.ResolveSendGrid(ctx)
	if !cfg.Enabled || cfg.APIKey == "" {
		log.Println("SendGrid not configured; skipping email delivery.")
		return false, nil
	}

	sender := strings.TrimSpace(cfg.FromEmail)
	if sender == "" {
		log.Println("SendGrid configured without a sender address; skipping email delivery.")
		return false, nil
	}

	msg := mail.NewV3MailInit(
		mail.NewEmail("Therapii", sender),
		emailSubject,
		mail.NewEmail(firstName, toEmail),
		mail.NewContent("text/plain", invitationEmailBody(firstName, code)),
	)

	ctx, cancel := context.WithTimeout(ctx, emailSendTimeout)
	defer cancel()

	resp, err := s.sendMail(ctx, cfg.APIKey, msg)
	if err != nil {
		log.Printf("Failed to send email via SendGrid: %v", err)
		return false, nil
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, &EmailConfigError{Status: resp.StatusCode, Body: resp.Body}
	case resp.StatusCode >= 400:
		log.Printf("SendGrid returned status %d: %s", resp.StatusCode, resp.Body)
		return false, nil
	}

	log.Printf("Email sent successfully to %s (from: %s)", toEmail, sender)
	return true, nil
}

func invitationEmailBody(firstName, code string) string {
	return fmt.Sprintf(`Hello %s,

Welcome to Therapii - we're glad to be part of your journey toward better mental well-being.

To connect securely with your therapist in the app, please use the one-time connection code below:

Your Code: %s

Here's how to use it:

1. Open the Therapii mobile app.
2. Tap "Connect with Therapist."
3. Enter the 5-digit code shown above.

Once you submit the code, your account will be linked directly to your therapist, allowing you to securely exchange messages, schedule sessions, and share updates.

If you did not request this code, please ignore this email or contact us immediately at %s.

Warm regards,
The Therapii Team`, firstName, code, supportEmail)
}
