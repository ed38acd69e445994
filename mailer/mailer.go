package mailer

import (
	"fmt"

	"pixels/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends the account verification mail over SMTP.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	publicURL string
	log       *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Mailer {
	return &Mailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:      cfg.MailFrom,
		publicURL: cfg.PublicURL,
		log:       log,
	}
}

// SendVerification mails the verification link and the 6-digit code. The
// code expires after 15 minutes.
func (m *Mailer) SendVerification(email, token, code string) error {
	link := fmt.Sprintf("%s/api/verify?token=%s", m.publicURL, token)

	body := fmt.Sprintf(`<h2>Bienvenue sur Pixels Media</h2>
<p>Cliquez sur le lien pour vérifier votre email :</p>
<p><a href="%s">%s</a></p>
<p>Ou entrez ce code dans l'application : <strong>%s</strong></p>
<p>Le code expire dans 15 minutes.</p>`, link, link, code)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Vérifiez votre email — Pixels Media")
	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}

// SendVerificationAsync fires the mail in the background; registration
// must not block on the SMTP round-trip.
func (m *Mailer) SendVerificationAsync(email, token, code string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.Errorw("panic in verification mail", "recover", r)
			}
		}()
		if err := m.SendVerification(email, token, code); err != nil {
			m.log.Warnw("verification mail failed", "email", email, "error", err)
		}
	}()
}
