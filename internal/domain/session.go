package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FileDescriptor records that a file accompanied a message. The content is not kept.
type FileDescriptor struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type Message struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Text      string          `json:"text"`
	File      *FileDescriptor `json:"file,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ChatSession is a saved transcript, as handed to persistence at teardown
// or created directly through the history API.
type ChatSession struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	ToolID    uuid.UUID  `json:"toolId"`
	ToolTitle string     `json:"toolTitle"`
	Messages  []Message  `json:"messages"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreatedAtEpochMs is the creation time in milliseconds since the epoch.
func (s *ChatSession) CreatedAtEpochMs() int64 {
	return s.CreatedAt.UnixMilli()
}

type Project struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	Tags         []string  `json:"tags"`
	SessionCount int       `json:"sessionCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
