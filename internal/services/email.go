package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/utils"
)

// Notifier sends viewing-request lifecycle mail. Callers treat sends as
// fire-and-forget; failures are logged, never surfaced to the requester.
type Notifier interface {
	ViewingApproved(vr *models.ViewingRequest, propertyTitle string) error
	ViewingCancelled(vr *models.ViewingRequest, propertyTitle string) error
}

type sendgridNotifier struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	sandbox   bool
}

func NewSendgridNotifier(apiKey, fromName, fromEmail string, sandbox bool) Notifier {
	return &sendgridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
		sandbox:   sandbox,
	}
}

var approvedTmpl = template.Must(template.New("approved").Parse(`
<p>Hi {{.Name}},</p>
<p>Your viewing request for <strong>{{.Property}}</strong> has been approved
for {{.Date}} at {{.Time}}.</p>
<p>See you there!</p>
`))

var cancelledTmpl = template.Must(template.New("cancelled").Parse(`
<p>Hi {{.Name}},</p>
<p>Unfortunately your viewing request for <strong>{{.Property}}</strong>
could not be accommodated and has been cancelled.</p>
<p>You are welcome to request a new viewing at any time.</p>
`))

func (n *sendgridNotifier) ViewingApproved(vr *models.ViewingRequest, propertyTitle string) error {
	body, err := render(approvedTmpl, map[string]string{
		"Name":     vr.FullName,
		"Property": propertyTitle,
		"Date":     vr.PreferredDate.Format("02 Jan 2006"),
		"Time":     vr.PreferredTime,
	})
	if err != nil {
		return err
	}
	return n.send(vr.FullName, vr.Email, "Your viewing is confirmed", body)
}

func (n *sendgridNotifier) ViewingCancelled(vr *models.ViewingRequest, propertyTitle string) error {
	body, err := render(cancelledTmpl, map[string]string{
		"Name":     vr.FullName,
		"Property": propertyTitle,
	})
	if err != nil {
		return err
	}
	return n.send(vr.FullName, vr.Email, "Update on your viewing request", body)
}

func (n *sendgridNotifier) send(toName, toEmail, subject, html string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	msg := mail.NewSingleEmail(from, subject, to, "", html)
	if n.sandbox {
		msg.SetMailSettings(mail.NewMailSettings().SetSandboxMode(mail.NewSetting(true)))
	}

	resp, err := n.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sending mail to %s: %w", toEmail, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sending mail to %s: sendgrid status %d", toEmail, resp.StatusCode)
	}
	utils.Logger.WithField("to", toEmail).Debug("mail sent")
	return nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
