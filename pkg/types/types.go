// Package types defines the shared types used across all Aura packages.
//
// These types are the common vocabulary between providers, the conversation
// store and the assistant orchestrator. Each package keeps its own domain types;
// only cross-cutting data structures live here to avoid circular imports.
package types

// Role identifies the author of a chat message.
type Role = string

// Message roles understood by every LLM provider.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in an LLM conversation history.
// The JSON form matches the on-disk chat history format.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`
}

// Language is a two-letter language tag. Only [English] and [Hindi] are
// ever produced by language detection.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
)

// String returns the tag as a plain string ("en" or "hi").
func (l Language) String() string { return string(l) }

// Name returns the English name of the language, as used in prompts.
func (l Language) Name() string {
	if l == Hindi {
		return "Hindi"
	}
	return "English"
}

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsVision indicates the model can process image inputs.
	SupportsVision bool
}
