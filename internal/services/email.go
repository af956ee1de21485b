package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

// EmailService delivers workflow notifications over SMTP. Settings live in
// SystemConfig rows so admins can change them without a restart.
type EmailService struct {
	db *gorm.DB
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db}
}

func (s *EmailService) GetConfig() *EmailConfig {
	config := &EmailConfig{}

	var configs []models.SystemConfig
	s.db.Where("`group` = ?", "email").Find(&configs)

	for _, c := range configs {
		switch c.Key {
		case "email_enabled":
			config.Enabled = c.Value == "true"
		case "email_host":
			config.Host = c.Value
		case "email_port":
			if port, err := strconv.Atoi(c.Value); err == nil {
				config.Port = port
			}
		case "email_username":
			config.Username = c.Value
		case "email_password":
			config.Password = c.Value
		case "email_from":
			config.From = c.Value
		case "email_use_tls":
			config.UseTLS = c.Value == "true"
		}
	}

	if config.Port == 0 {
		config.Port = 587
	}

	return config
}

// Deliver sends one notification task. Disabled or unconfigured email is a
// silent no-op so the queue never retries pointlessly.
func (s *EmailService) Deliver(task *NotifyTask) error {
	config := s.GetConfig()
	if !config.Enabled || config.Host == "" {
		return nil
	}
	if task.RecipientEmail == "" {
		return nil
	}

	subject, body := s.buildMessage(task)
	return s.sendEmail(config, []string{task.RecipientEmail}, subject, body)
}

func (s *EmailService) buildMessage(task *NotifyTask) (string, string) {
	var subject string
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")

	switch task.Kind {
	case NotifyPreviewShared:
		subject = fmt.Sprintf("[ProofPay] Preview ready: %s", task.ProjectTitle)
		sb.WriteString("<h2>A preview is ready for your review</h2>")
		sb.WriteString(fmt.Sprintf("<p>The freelancer has shared a preview of <b>%s</b>. Open your project link to review, comment, approve, or request changes.</p>", task.ProjectTitle))
	case NotifyApproved:
		subject = fmt.Sprintf("[ProofPay] Approved: %s", task.ProjectTitle)
		sb.WriteString("<h2>Your client approved the preview</h2>")
		sb.WriteString(fmt.Sprintf("<p><b>%s</b> has been approved. Payment can now be initiated by the client.</p>", task.ProjectTitle))
	case NotifyRevisionRequested:
		subject = fmt.Sprintf("[ProofPay] Revision requested: %s", task.ProjectTitle)
		sb.WriteString("<h2>Your client requested a revision</h2>")
		if fb := task.Extra["feedback"]; fb != "" {
			sb.WriteString(fmt.Sprintf("<pre style=\"background: #f5f5f5; padding: 12px; border-radius: 4px;\">%s</pre>", fb))
		}
	case NotifyPaymentConfirmed:
		subject = fmt.Sprintf("[ProofPay] Your download is ready: %s", task.ProjectTitle)
		sb.WriteString("<h2>Payment received</h2>")
		sb.WriteString(fmt.Sprintf("<p>Thank you! Your files for <b>%s</b> are ready.</p>", task.ProjectTitle))
		if token := task.Extra["download_token"]; token != "" {
			sb.WriteString(fmt.Sprintf("<p>Download token: <code>%s</code></p>", token))
		}
		if exp := task.Extra["expires_at"]; exp != "" {
			sb.WriteString(fmt.Sprintf("<p style=\"color: #888;\">The link expires %s and allows a limited number of downloads.</p>", exp))
		}
	default:
		subject = fmt.Sprintf("[ProofPay] Update: %s", task.ProjectTitle)
		sb.WriteString(fmt.Sprintf("<p>There is an update on <b>%s</b>.</p>", task.ProjectTitle))
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Powered by ProofPay</p>")
	sb.WriteString("</body></html>")

	return subject, sb.String()
}

func (s *EmailService) sendEmail(config *EmailConfig, to []string, subject, body string) error {
	from := config.From
	if from == "" {
		from = config.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	var err error
	if config.UseTLS {
		err = s.sendEmailTLS(config, addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Error().Err(err).Strs("to", to).Msg("failed to send email")
		return err
	}

	logger.Debug().Strs("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

func (s *EmailService) sendEmailTLS(config *EmailConfig, addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
