package models

import "time"

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleParticipant Role = "PARTICIPANT"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// Message is one entry in a room's history. Ordering is by slice position;
// Timestamp is a display string and never used for sorting.
type Message struct {
	ID         string      `json:"id"`
	SenderName string      `json:"senderName"`
	Role       Role        `json:"role,omitempty"`
	Text       string      `json:"text"`
	Timestamp  string      `json:"timestamp"`
	Type       MessageType `json:"type"`
}

// Memo is a shared plan note attached to a room. There is no edit
// operation; updating a memo means delete and recreate.
type Memo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Room is a named chat channel. A non-empty Password makes the room
// private: it gates joining but encrypts nothing.
type Room struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Password  string          `json:"password,omitempty"`
	Messages  []Message       `json:"messages"`
	Memos     []Memo          `json:"memos"`
	CreatedAt time.Time       `json:"createdAt"`
	CreatedBy string          `json:"createdBy"`
	Typing    map[string]bool `json:"typing,omitempty"`
}

func (r *Room) IsPrivate() bool {
	return r.Password != ""
}

// UserSession binds a username and role to one open room view. It is never
// persisted; several sessions may share a username concurrently.
type UserSession struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
