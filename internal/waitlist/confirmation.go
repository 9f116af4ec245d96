package waitlist

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"waitlist/internal/config"
	"waitlist/pkg/logger"
	"waitlist/pkg/mailer"

	"go.uber.org/zap"
)

// Confirmation email constants.
const (
	ConfirmationSubject = "Willkommen auf der VergabeMeister-Warteliste!"
	ConfirmationTag     = "waitlist-confirmation"
)

// confirmationText is the plain text part of the confirmation email.
var confirmationText = strings.Join([]string{ //nolint: gochecknoglobals
	"Du bist dabei!",
	"",
	"Danke, dass du dich für die VergabeMeister-Warteliste eingetragen hast.",
	"",
	"Was kommt als Nächstes?",
	"- Wir arbeiten mit Hochdruck am Launch.",
	"- Du bekommst als Erste/r Zugang, sobald wir starten.",
	"- Bis dahin: Lehn dich zurück — wir melden uns.",
	"",
	"Dein VergabeMeister-Team",
	"",
	"---",
	"© 2026 VergabeMeister",
}, "\n")

// ConfirmationOptions configure the confirmation email.
type ConfirmationOptions struct {
	// TemplatePath is the HTML body template. It is read on every send so the
	// file can be edited without a restart.
	TemplatePath string
	// Sender is the From address.
	Sender mailer.Address
}

// NewConfirmationOptions constructs a ConfirmationOptions value from the provided application config.
func NewConfirmationOptions(cfg *config.Config) ConfirmationOptions {
	return ConfirmationOptions{
		TemplatePath: cfg.Waitlist.TemplatePath,
		Sender: mailer.Address{
			Email: cfg.Brevo.SenderEmail,
			Name:  cfg.Brevo.SenderName,
		},
	}
}

// Confirmation renders and sends the welcome email of a new subscriber.
type Confirmation struct {
	options ConfirmationOptions
	mailer  mailer.Mailer
}

// NewConfirmation creates a Confirmation sending through m.
func NewConfirmation(m mailer.Mailer, options ConfirmationOptions) *Confirmation {
	return &Confirmation{options: options, mailer: m}
}

// templateData is exposed to the HTML template.
type templateData struct {
	Email string
}

// render reads and executes the HTML template for email.
func (c *Confirmation) render(email string) (string, error) {
	raw, err := os.ReadFile(c.options.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("could not read template: %w", err)
	}

	tpl, err := template.New("confirmation").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("could not parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, templateData{Email: email}); err != nil {
		return "", fmt.Errorf("could not render template: %w", err)
	}

	return buf.String(), nil
}

// SendConfirmation renders the template and sends the email to email.
func (c *Confirmation) SendConfirmation(ctx context.Context, email string) error {
	html, err := c.render(email)
	if err != nil {
		return err
	}

	id, err := c.mailer.Send(ctx, mailer.Message{
		Sender:  c.options.Sender,
		To:      []mailer.Address{{Email: email}},
		Subject: ConfirmationSubject,
		HTML:    html,
		Text:    confirmationText,
		Tags:    []string{ConfirmationTag},
	})
	if err != nil {
		return fmt.Errorf("could not send confirmation: %w", err)
	}
	logger.Debug(ctx, "confirmation sent", zap.String("message_id", id))

	return nil
}

// Ensure Confirmation conforms to the Confirmer interface at compile time.
var _ Confirmer = (*Confirmation)(nil)
