package smtp

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

type messageData struct {
	Name          string
	EventName     string
	DiscordLink   string
	CredentialURL string
	ImageURL      string
}

var textTmpl = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(`Hello {{.Name}},

Thank you for registering for {{.EventName}}! We're excited to have you join us.
{{- if .DiscordLink}}
In order to stay in contact, you should consider joining our Discord server: {{.DiscordLink}}
{{- end}}

When you arrive at the event, re-open this email in a client that supports HTML
so you can show us your QR code. You can also download it from this link: {{.CredentialURL}}

If you have any questions, feel free to reply to this email.
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(`<p>Hello {{.Name}},</p>
<p>Thank you for registering for {{.EventName}}! We're excited to have you join us.</p>
{{- if .DiscordLink}}
<p>In order to stay in contact, you should consider joining our <a href="{{.DiscordLink}}">Discord server</a>.</p>
{{- end}}
<p>When you arrive at the event, here's the QR code you should show us in order to sign in:</p>
<img src="{{.ImageURL}}" alt="QR code" />
<a href="{{.CredentialURL}}">If the image above doesn't work, click here.</a>
<p>If you have any questions, feel free to reply to this email.</p>
`))

func renderText(d messageData) (string, error) {
	var sb strings.Builder
	if err := textTmpl.Execute(&sb, d); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderHTML(d messageData) (string, error) {
	var sb strings.Builder
	if err := htmlTmpl.Execute(&sb, d); err != nil {
		return "", err
	}
	return sb.String(), nil
}
