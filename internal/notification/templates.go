// internal/notification/templates.go

package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// emailTemplate pairs the HTML and plain text renderings of one message
type emailTemplate struct {
	subject string
	html    *htmltemplate.Template
	text    *template.Template
}

const baseHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
<h2 style="background: #0d6efd; color: #fff; padding: 16px;">{{.AppName}}</h2>
<div style="padding: 16px;">{{template "content" .}}</div>
<p style="font-size: 12px; color: #888; padding: 0 16px;">This is an automated message, please do not reply.</p>
</body>
</html>`

var (
	welcomeTemplate = mustTemplate("Welcome to {{.AppName}}",
		`<p>Hi {{.Name}},</p>
<p>Your account is ready and your phone number has been verified.</p>
<p>You can now log in to place and track your laundry orders.</p>`,
		`Hi {{.Name}},

Your {{.AppName}} account is ready and your phone number has been verified.
You can now log in to place and track your laundry orders.`)

	orderConfirmationTemplate = mustTemplate("Order Confirmation - {{.AppName}}",
		`<p>Hi {{.Name}},</p>
<p>We received your order.</p>
<table>
<tr><td>Tracking number</td><td>{{.Order.TrackingNumber}}</td></tr>
<tr><td>Service</td><td>{{.Order.ServiceType}}</td></tr>
<tr><td>Weight</td><td>{{printf "%.2f" .Order.WeightKg}} kg</td></tr>
<tr><td>Total</td><td>{{printf "%.2f" .Order.TotalAmount}}</td></tr>
<tr><td>Status</td><td>{{.Order.Status}}</td></tr>
</table>`,
		`Hi {{.Name}},

We received your order.
Tracking number: {{.Order.TrackingNumber}}
Service: {{.Order.ServiceType}}
Weight: {{printf "%.2f" .Order.WeightKg}} kg
Total: {{printf "%.2f" .Order.TotalAmount}}
Status: {{.Order.Status}}`)

	orderStatusTemplate = mustTemplate("Order Status Update - {{.AppName}}",
		`<p>Hi {{.Name}},</p>
<p>Your order <strong>{{.Order.TrackingNumber}}</strong> changed from <em>{{.OldStatus}}</em> to <strong>{{.NewStatus}}</strong>.</p>`,
		`Hi {{.Name}},

Your order {{.Order.TrackingNumber}} changed from {{.OldStatus}} to {{.NewStatus}}.`)
)

func mustTemplate(subject, htmlContent, text string) *emailTemplate {
	html := htmltemplate.Must(htmltemplate.New("base").Parse(baseHTML))
	htmltemplate.Must(html.New("content").Parse(htmlContent))

	return &emailTemplate{
		subject: subject,
		html:    html,
		text:    template.Must(template.New("text").Parse(text)),
	}
}

// render fills in subject, HTML and text for one recipient
func (t *emailTemplate) render(to string, data map[string]interface{}) (*Email, error) {
	subject, err := renderText(template.Must(template.New("subject").Parse(t.subject)), data)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	data["Subject"] = subject

	var html bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, "base", data); err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}

	text, err := renderText(t.text, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text: %w", err)
	}

	return &Email{To: to, Subject: subject, HTML: html.String(), Text: text}, nil
}

func renderText(tmpl *template.Template, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
