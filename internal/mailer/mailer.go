// internal/mailer/mailer.go
package mailer

import (
    "crypto/tls"
    "fmt"
    "net"
    "net/smtp"
    "strings"

    "github.com/rotisserie/eris"
)

// Sender is the transport collaborator: deliver one fully-formed message
// or return an error. The dispatcher classifies the error text.
type Sender interface {
    Send(to, subject, body string) error
}

// SMTPSender delivers mail over SMTP with implicit TLS (port 465 style).
type SMTPSender struct {
    Host     string
    Port     string
    User     string
    Password string
    FromName string
}

func (s *SMTPSender) Send(to, subject, body string) error {
    addr := net.JoinHostPort(s.Host, s.Port)
    conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
    if err != nil {
        return eris.Wrap(err, "mailer: dial")
    }
    client, err := smtp.NewClient(conn, s.Host)
    if err != nil {
        conn.Close()
        return eris.Wrap(err, "mailer: handshake")
    }
    defer client.Close()

    auth := smtp.PlainAuth("", s.User, s.Password, s.Host)
    if err := client.Auth(auth); err != nil {
        return eris.Wrap(err, "mailer: auth")
    }
    if err := client.Mail(s.User); err != nil {
        return eris.Wrap(err, "mailer: mail from")
    }
    if err := client.Rcpt(to); err != nil {
        return eris.Wrap(err, "mailer: rcpt to")
    }
    w, err := client.Data()
    if err != nil {
        return eris.Wrap(err, "mailer: data")
    }
    msg := s.compose(to, subject, body)
    if _, err := w.Write([]byte(msg)); err != nil {
        w.Close()
        return eris.Wrap(err, "mailer: write body")
    }
    if err := w.Close(); err != nil {
        return eris.Wrap(err, "mailer: close data")
    }
    return client.Quit()
}

func (s *SMTPSender) compose(to, subject, body string) string {
    from := s.User
    if s.FromName != "" {
        from = fmt.Sprintf("%s <%s>", s.FromName, s.User)
    }
    headers := []string{
        "From: " + from,
        "To: " + to,
        "Subject: " + subject,
        "Reply-To: " + s.User,
        "MIME-Version: 1.0",
        "Content-Type: text/plain; charset=\"utf-8\"",
    }
    return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}

// throttlePatterns mark provider-side rate limiting in transport error
// text. Matching errors trigger a cooldown instead of a per-item failure.
var throttlePatterns = []string{
    "rate limit",
    "rate-limit",
    "ratelimit",
    "too many",
    "throttl",
    "quota",
    "421",
    "450",
    "4.7.0",
}

// IsThrottleError reports whether a transport error looks like a
// provider-side rate limit rather than a terminal delivery failure.
func IsThrottleError(err error) bool {
    if err == nil {
        return false
    }
    msg := strings.ToLower(err.Error())
    for _, p := range throttlePatterns {
        if strings.Contains(msg, p) {
            return true
        }
    }
    return false
}

var _ Sender = (*SMTPSender)(nil)
