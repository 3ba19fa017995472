package mailer

import (
	"fmt"
	"strings"

	"github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

// EmailJob is one rendered message ready for delivery.
type EmailJob struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	Template string
}

// NewJob renders the named template set for one recipient.
func NewJob(to, template string, data templates.EmailData) (EmailJob, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return EmailJob{}, fmt.Errorf("%s: recipient is empty", template)
	}
	subject, text, html, err := templates.Render(template, data)
	if err != nil {
		return EmailJob{}, err
	}
	return EmailJob{To: to, Subject: subject, Text: text, HTML: html, Template: template}, nil
}
