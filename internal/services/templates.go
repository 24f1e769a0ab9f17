package services

import (
	"fmt"
	"time"

	"github.com/jamboshop/jamboshop/internal/notifications"
)

// MessageTemplates holds the plain-text bodies for account emails. Body
// strings take two verbs: recipient name and verification code.
type MessageTemplates struct {
	ActivationSubject  string
	ActivationBody     string
	ResetSubject       string
	ResetBody          string
	EmailChangeSubject string
	EmailChangeBody    string
}

// DefaultTemplates returns the stock marketplace wording.
func DefaultTemplates() MessageTemplates {
	return MessageTemplates{
		ActivationSubject:  "Activate your JamboShop account",
		ActivationBody:     "Hello %s,\n\nYour JamboShop activation code is %s.\nIt expires in %s.\n",
		ResetSubject:       "Reset your JamboShop password",
		ResetBody:          "Hello %s,\n\nYour JamboShop password reset code is %s.\nIt expires in %s.\nIf you did not request this, ignore this email.\n",
		EmailChangeSubject: "Confirm your new JamboShop email",
		EmailChangeBody:    "Hello %s,\n\nYour JamboShop email change code is %s.\nIt expires in %s.\n",
	}
}

func (t MessageTemplates) activation(recipient, name, code string, ttl time.Duration) notifications.Notification {
	return notifications.Notification{
		Recipient: recipient,
		Subject:   t.ActivationSubject,
		Body:      fmt.Sprintf(t.ActivationBody, name, code, ttl),
	}
}

func (t MessageTemplates) reset(recipient, name, code string, ttl time.Duration) notifications.Notification {
	return notifications.Notification{
		Recipient: recipient,
		Subject:   t.ResetSubject,
		Body:      fmt.Sprintf(t.ResetBody, name, code, ttl),
	}
}

func (t MessageTemplates) emailChange(recipient, name, code string, ttl time.Duration) notifications.Notification {
	return notifications.Notification{
		Recipient: recipient,
		Subject:   t.EmailChangeSubject,
		Body:      fmt.Sprintf(t.EmailChangeBody, name, code, ttl),
	}
}
