package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, send: smtp.SendMail, logger: logger}
}

// NotifyFailure mails the user-facing failure message. message is already
// localized; the diagnostic error kind is never included.
func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, fileName, message string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := buildFailureMail(n.from, userEmail, jobID, fileName, message)

	if err := n.send(addr, nil, n.from, []string{userEmail}, msg); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func buildFailureMail(from, to, jobID, fileName, message string) []byte {
	subject := fmt.Sprintf("LastFrame - extraction failed [Job %s]", jobID)
	body := strings.Join([]string{
		message,
		"",
		"Job ID: " + jobID,
		"File: " + fileName,
		"",
		"-- LastFrame",
	}, "\r\n")

	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body,
	))
}
