package domain

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeFile is an uploaded reference document whose text can be fed to generation.
type KnowledgeFile struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	ToolID     *uuid.UUID `json:"toolId,omitempty"`
	Filename   string     `json:"filename"`
	StoredPath string     `json:"-"`
	Size       int64      `json:"fileSize"`
	MimeType   string     `json:"mimeType"`
	Content    string     `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
}
