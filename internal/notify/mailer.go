// Package notify delivers alert emails about at-risk students.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"text/template"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// ErrMailRejected is returned when the provider refuses a message for good.
// Callers should not retry it.
var ErrMailRejected = errors.New("mail rejected by provider")

// ErrNoRecipient is returned for messages without a destination address.
var ErrNoRecipient = errors.New("message has no recipient")

// Message is a single plain-text email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Permanent reports whether err should not be retried.
func Permanent(err error) bool {
	return errors.Is(err, ErrMailRejected) || errors.Is(err, ErrNoRecipient)
}

var subjects = map[model.RiskTier]string{
	model.TierHighRisk:   "Urgent: %s is at high risk",
	model.TierMediumRisk: "Attention: %s shows signs of risk",
	model.TierNoRisk:     "Update on %s",
}

var alertBody = template.Must(template.New("alert").Parse(`Hello,

{{.Advisor}} flagged {{.Name}} (student #{{.StudentID}}) for follow-up.

Risk level:   {{.Tier}}
Dropout:      {{.Dropout}}
Underperform: {{.Underperform}}
{{- if .Note}}

Advisor note:
{{.Note}}
{{- end}}

{{if eq .Tier "high-risk" -}}
Both risk indicators are raised. Please arrange a meeting as soon as possible.
{{- else if eq .Tier "medium-risk" -}}
One risk indicator is raised. Please check in with the student this week.
{{- else -}}
No risk indicators are currently raised.
{{- end}}
`))

type alertData struct {
	Advisor      string
	Name         string
	StudentID    int
	Tier         model.RiskTier
	Dropout      string
	Underperform string
	Note         string
}

// AlertMessage renders the alert email for a queued job. The tier comes from
// the job, which carries the reconciled classification.
func AlertMessage(job model.AlertJob) (Message, error) {
	if strings.TrimSpace(job.Recipient) == "" {
		return Message{}, ErrNoRecipient
	}
	to, err := mail.ParseAddress(job.Recipient)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrNoRecipient, err)
	}

	subject, ok := subjects[job.Tier]
	if !ok {
		subject = subjects[model.TierNoRisk]
	}

	var body strings.Builder
	err = alertBody.Execute(&body, alertData{
		Advisor:      job.AdvisorName,
		Name:         job.Student.Name,
		StudentID:    job.Student.StudentID,
		Tier:         job.Tier,
		Dropout:      label(job.Dropout),
		Underperform: label(job.Underperf),
		Note:         strings.TrimSpace(job.Note),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render alert: %w", err)
	}

	return Message{
		To:      *to,
		Subject: fmt.Sprintf(subject, job.Student.Name),
		Text:    body.String(),
	}, nil
}

func label(v bool) string {
	if v {
		return model.LabelAtRisk
	}
	return model.LabelNoRisk
}
