// internal/models/notification.go
package models

// Notification tells an applicant about a terminal outcome of their application.
type Notification struct {
	ApplicationID string `json:"applicationId"`
	Stage         Stage  `json:"stage"`
	Status        Status `json:"status"`
	RecipientName string `json:"recipientName"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// NotificationResult reports delivery per channel ("sent", "failed", "disabled").
type NotificationResult struct {
	EmailStatus string `json:"emailStatus"`
	SMSStatus   string `json:"smsStatus"`
	MessageID   string `json:"messageId,omitempty"`
}
