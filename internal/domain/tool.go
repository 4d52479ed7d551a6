package domain

import (
	"time"

	"github.com/google/uuid"
)

// InputKind is how a question expects to be answered.
type InputKind string

const (
	InputSingleLine InputKind = "input"
	InputMultiLine  InputKind = "textarea"
	InputChoice     InputKind = "select"
)

func (k InputKind) Valid() bool {
	switch k {
	case InputSingleLine, InputMultiLine, InputChoice:
		return true
	}
	return false
}

type Question struct {
	ID          uuid.UUID `json:"id"`
	ToolID      uuid.UUID `json:"toolId"`
	Label       string    `json:"label"`
	Kind        InputKind `json:"type"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Order       int       `json:"order"`
	Options     []string  `json:"options,omitempty"`
}

type Tool struct {
	ID                 uuid.UUID   `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	CategoryID         uuid.UUID   `json:"categoryId"`
	CategoryName       string      `json:"category"`
	Active             bool        `json:"active"`
	Featured           bool        `json:"featured"`
	PrimaryModel       ModelName   `json:"primaryModel"`
	FallbackModels     []ModelName `json:"fallbackModels"`
	PromptInstructions string      `json:"promptInstructions"`
	Questions          []Question  `json:"questions"`
	UsageCount         int         `json:"usageCount"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

type Category struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"displayOrder"`
	Active       bool      `json:"active"`
	ToolCount    int       `json:"toolCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToolFilter narrows catalog listings. Zero values mean "no filter".
type ToolFilter struct {
	CategoryID      *uuid.UUID
	CategoryName    string
	FeaturedOnly    bool
	Search          string
	IncludeInactive bool
}
