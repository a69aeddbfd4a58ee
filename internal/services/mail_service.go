package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"poetica/internal/config"
	"poetica/internal/logging"
)

// ErrMailDisabled is returned by Send when SMTP is not configured.
var ErrMailDisabled = errors.New("mail service disabled")

// Message is one outgoing HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a message. Implementations may block; callers run them
// off the request path.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailService sends mail over SMTP with PLAIN auth.
type MailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	enabled  bool
	send     sendFunc
}

func NewMailService(cfg config.MailConfig) *MailService {
	enabled := cfg.Enabled()
	if !enabled {
		logging.WithComponent("mail").Warn("MailService disabled: missing SMTP settings")
	}

	return &MailService{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		enabled:  enabled,
		send:     smtp.SendMail,
	}
}

func (s *MailService) Enabled() bool {
	return s.enabled
}

func (s *MailService) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "From: Poetica <%s>\r\n", s.from)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// Send delivers msg, giving up when ctx is done. The SMTP exchange itself
// cannot be interrupted, so on timeout it finishes in the background.
func (s *MailService) Send(ctx context.Context, msg Message) error {
	if !s.enabled {
		return ErrMailDisabled
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	body := s.compose(msg)

	errc := make(chan error, 1)
	go func() {
		errc <- s.send(addr, auth, s.from, []string{msg.To}, body)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
		logging.WithComponent("mail").Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", msg.To, ctx.Err())
	}
}

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "approved"}}<p>Hi {{.Name}},</p>
<p>Good news: your poem <strong>{{.Title}}</strong> has been approved and is now published.</p>
<p><a href="{{.Link}}">Read it on Poetica</a></p>{{end}}
{{define "rejected"}}<p>Hi {{.Name}},</p>
<p>Thank you for submitting <strong>{{.Title}}</strong>. After review it was not accepted for publication.</p>
{{if .Reason}}<p>Reviewer note: {{.Reason}}</p>{{end}}
<p>You are welcome to submit new work at any time.</p>{{end}}
{{define "reset"}}<p>Hi {{.Name}},</p>
<p>Someone asked to reset the password for your Poetica account. The link below is valid for {{.Valid}}.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If this was not you, ignore this email.</p>{{end}}
`))

func renderEmail(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}
