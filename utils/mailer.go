package utils

import (
	"fmt"

	"wms-app/config"
	"wms-app/types"

	"gopkg.in/gomail.v2"
)

// Mailer emails the warehouse supervisors about wave milestones. It
// implements allocation.Notifier; sends run in the background so the engine
// never blocks on SMTP.
type Mailer struct {
	Host     string
	Port     int
	Sender   string
	Password string
	To       []string
}

// NewMailerFromConfig returns nil when SMTP is not configured; a nil Mailer
// is a valid "no notifications" notifier for the engine.
func NewMailerFromConfig() *Mailer {
	if config.SMTPHost == "" || len(config.AlertEmails) == 0 {
		return nil
	}
	return &Mailer{
		Host:     config.SMTPHost,
		Port:     config.SMTPPort,
		Sender:   config.SMTPSender,
		Password: config.SMTPPassword,
		To:       config.AlertEmails,
	}
}

func (m *Mailer) WaveCompleted(whsCode string, completed int) {
	if m == nil {
		return
	}
	subject := "📦 Wave completed in " + whsCode
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>Wave allocation completed</h3>
				<p>Warehouse: <strong>%s</strong></p>
				<p>Pallets allocated: <strong>%d</strong></p>
				<p>This is an auto-generated email. Please do not reply.</p>
			</body>
		</html>
	`, whsCode, completed)
	go m.send(subject, body)
}

func (m *Mailer) PalletParked(whsCode string, palletID types.SnowflakeID, reason string) {
	if m == nil {
		return
	}
	subject := "⚠️ Pallet needs attention in " + whsCode
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>Pallet could not be allocated</h3>
				<p>Warehouse: <strong>%s</strong></p>
				<p>Pallet: <strong>%s</strong></p>
				<p>Reason: %s</p>
				<p>This is an auto-generated email. Please do not reply.</p>
			</body>
		</html>
	`, whsCode, palletID, reason)
	go m.send(subject, body)
}

func (m *Mailer) send(subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("To", m.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Sender, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		fmt.Println("Failed to send notification email:", err)
	}
}
