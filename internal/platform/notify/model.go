// Package notify stores in-app notifications and fans them out from the
// domain services. Delivery is advisory: a failed insert is logged and never
// fails the operation that triggered it.
package notify

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeReminder     Type = "reminder"
	TypeConsultation Type = "consultation"
	TypeMessage      Type = "message"
	TypeHealthAlert  Type = "health_alert"
	TypeSystem       Type = "system"
)

func (t Type) Valid() bool {
	switch t {
	case TypeReminder, TypeConsultation, TypeMessage, TypeHealthAlert, TypeSystem:
		return true
	}
	return false
}

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      Type       `json:"type"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
