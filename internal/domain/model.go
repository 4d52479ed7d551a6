package domain

import "fmt"

// ModelName identifies a generation provider as stored on a tool.
type ModelName string

const (
	ModelChatGPT ModelName = "ChatGPT"
	ModelClaude  ModelName = "Claude"
	ModelGrok    ModelName = "Grok"
	ModelGemini  ModelName = "Gemini"
)

// KnownModels in the order they are reported by status endpoints.
var KnownModels = []ModelName{ModelChatGPT, ModelClaude, ModelGrok, ModelGemini}

func ParseModelName(s string) (ModelName, error) {
	for _, m := range KnownModels {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidModel, s)
}

func (m ModelName) Valid() bool {
	_, err := ParseModelName(string(m))
	return err == nil
}
