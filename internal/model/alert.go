package model

import "time"

// AlertStatus is the delivery state of an alert email.
type AlertStatus string

const (
	AlertStatusQueued AlertStatus = "QUEUED"
	AlertStatusSent   AlertStatus = "SENT"
	AlertStatusFailed AlertStatus = "FAILED"
)

// SendAlertRequest is the payload for requesting an alert email about a student.
type SendAlertRequest struct {
	StudentID int    `json:"studentId" binding:"required,min=1"`
	Recipient string `json:"recipient" binding:"omitempty,email,max=255"`
	Note      string `json:"note" binding:"omitempty,max=1000"`
}

// AlertJob is the queued unit of work consumed by the alert worker.
type AlertJob struct {
	ID          string     `json:"id"`
	AdvisorID   int        `json:"advisor_id"`
	AdvisorName string     `json:"advisor_name"`
	Recipient   string     `json:"recipient"`
	Student     StudentRef `json:"student"`
	Tier        RiskTier   `json:"tier"`
	Dropout     bool       `json:"dropout"`
	Underperf   bool       `json:"underperform"`
	Note        string     `json:"note,omitempty"`
	Attempts    int        `json:"attempts"`
	QueuedAt    time.Time  `json:"queued_at"`
}

// StudentRef is the minimal student identity carried by alerts and notifications.
type StudentRef struct {
	StudentID int    `json:"StudentID"`
	Name      string `json:"Name"`
}

// AlertLog is a persisted record of an alert delivery attempt.
type AlertLog struct {
	ID        string      `json:"id"`
	AdvisorID int         `json:"advisor_id"`
	StudentID int         `json:"student_id"`
	Tier      RiskTier    `json:"tier"`
	Recipient string      `json:"recipient"`
	Status    AlertStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NotificationKind classifies events pushed to an advisor's notification stream.
type NotificationKind string

const (
	NotificationHighRisk   NotificationKind = "high_risk_predicted"
	NotificationAlertSent  NotificationKind = "alert_sent"
	NotificationAlertError NotificationKind = "alert_failed"
)

// Notification is an event delivered to an advisor over the notification stream.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Student   StudentRef       `json:"student"`
	Tier      RiskTier         `json:"tier,omitempty"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
