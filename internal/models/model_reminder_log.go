package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subwatch/subwatch/pkg/types"
)

// ReminderLogDetail captures the outcome payload of one send attempt.
type ReminderLogDetail struct {
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReminderLog is an append-only record of every reminder send attempt,
// written by the batch processor regardless of outcome.
type ReminderLog struct {
	ID               string                                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID   string                                 `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	UserID           string                                 `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	SentAt           time.Time                              `gorm:"column:sent_at;not null" json:"sent_at"`
	DaysUntilPayment int                                    `gorm:"column:days_until_payment;not null" json:"days_until_payment"`
	Outcome          types.ReminderOutcome                  `gorm:"column:outcome;type:varchar(16);not null" json:"outcome"`
	Detail           datatypes.JSONType[*ReminderLogDetail] `gorm:"column:detail;type:jsonb;default:'{}'" json:"detail"`
	CreatedAt        time.Time                              `json:"created_at"`
}

func (ReminderLog) TableName() string {
	return "reminder_log"
}
