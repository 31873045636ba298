package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        uuid.UUID `json:"_id" gorm:"type:uuid;primaryKey"`
	ChatID    uuid.UUID `json:"chatId" gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1"`
	Chat      Chat      `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Seq       int64     `json:"-" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_messages_chat_created,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Seq == 0 {
		m.Seq = m.CreatedAt.UnixNano()
	}
	return nil
}

// ValidRole reports whether r is a role a message may carry.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAssistant
}
