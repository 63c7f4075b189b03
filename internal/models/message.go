package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two users, addressed by username.
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Sender    string    `gorm:"index;size:30;not null" bson:"sender" json:"sender"`
	Receiver  string    `gorm:"index;size:30;not null" bson:"receiver" json:"receiver"`
	Content   string    `gorm:"type:text;not null" bson:"content" json:"content"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	m.PrepareForInsert()
	return nil
}

// PrepareForInsert fills the ID and timestamp.
func (m *Message) PrepareForInsert() {
	ensureID(&m.ID)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
}

// Counterpart returns the other participant from username's point of view.
func (m *Message) Counterpart(username string) string {
	if m.Sender == username {
		return m.Receiver
	}
	return m.Sender
}

// LastMessage is the preview shown in a conversation list.
type LastMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
}

// Conversation groups the messages exchanged with one counterpart.
type Conversation struct {
	Username    string      `json:"username"`
	Avatar      string      `json:"avatar"`
	LastMessage LastMessage `json:"lastMessage"`
}
