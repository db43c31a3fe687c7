// Package smtp delivers registration confirmations over authenticated SMTP.
package smtp

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/minnehack/registration-api/internal/ports/out/notifier"
)

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	Origin      string
	EventName   string
	DiscordLink string
}

type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) SendConfirmation(ctx context.Context, c notifier.Confirmation) error {
	msg, err := s.buildMessage(c)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

func (s *Sender) buildMessage(c notifier.Confirmation) (*mail.Msg, error) {
	data := messageData{
		Name:          c.Name,
		EventName:     s.cfg.EventName,
		DiscordLink:   s.cfg.DiscordLink,
		CredentialURL: s.cfg.Origin + "/r/" + c.Code.String(),
		ImageURL:      s.cfg.Origin + "/r/" + c.Code.String() + ".png",
	}
	text, err := renderText(data)
	if err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	html, err := renderHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(c.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Your %s registration", s.cfg.EventName))
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}
