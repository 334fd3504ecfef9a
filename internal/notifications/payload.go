package notifications

import "time"

// MessageType defines the type of notification.
type MessageType string

// Message types.
const (
	MessageTypePasswordResetOTP MessageType = "otp_password_reset"
	MessageTypeLoginOTP         MessageType = "otp_login"
	MessageTypePasswordChanged  MessageType = "password_changed"
)

// MessageTypes lists every message type with a template.
var MessageTypes = []MessageType{
	MessageTypePasswordResetOTP,
	MessageTypeLoginOTP,
	MessageTypePasswordChanged,
}

// NotificationPayload contains data for rendering a notification.
type NotificationPayload struct {
	MessageType MessageType
	Name        string
	Email       string
	Code        string
	ExpiresIn   time.Duration
	GeneratedAt time.Time
}

// Notification is a rendered message ready for delivery.
type Notification struct {
	To      string
	Subject string
	Body    string
}
