package mailingservices

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// MailService sends the transactional mail the app needs.
type MailService interface {
	SendWelcomeMessage(recipient, subject string) (string, error)
	SendResetPassword(recipient, resetLink string) (string, error)
}

type Mailgun struct {
	Client *mailgun.MailgunImpl
	Sender string
}

func (m *Mailgun) Init() {
	domain := os.Getenv("MG_DOMAIN")
	apiKey := os.Getenv("MAILGUN_API_KEY")
	if domain == "" || apiKey == "" {
		log.Println("mailgun credentials missing, outgoing mail will fail")
	}
	m.Client = mailgun.NewMailgun(domain, apiKey)
	m.Sender = os.Getenv("EMAIL_FROM")
	if m.Sender == "" {
		m.Sender = fmt.Sprintf("Icebreaker <no-reply@%s>", domain)
	}
}

func (m *Mailgun) send(recipient, subject, body string) (string, error) {
	message := m.Client.NewMessage(m.Sender, subject, "", recipient)
	message.SetHtml(body)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, id, err := m.Client.Send(ctx, message)
	if err != nil {
		log.Printf("mailgun send to %s failed: %v", recipient, err)
		return "", err
	}
	return id, nil
}

func (m *Mailgun) SendWelcomeMessage(recipient, subject string) (string, error) {
	body := `<p>Welcome to Icebreaker!</p>
<p>Your profile is live. Add a photo and a few interests so people know who they are waving at.</p>`
	return m.send(recipient, subject, body)
}

func (m *Mailgun) SendResetPassword(recipient, resetLink string) (string, error) {
	body := fmt.Sprintf(`<p>Someone asked to reset the password for this address.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in one hour. If this wasn't you, ignore this mail.</p>`, resetLink)
	return m.send(recipient, "Reset your Icebreaker password", body)
}
