// Package models defines the core domain types for promptgate.
package models

// PromptSource selects where the text for an auto-submitted response comes from.
type PromptSource string

const (
	// PromptSourceContinue uses the built-in continuation prompt.
	PromptSourceContinue PromptSource = "continue"
	// PromptSourceCustom uses the content of a saved prompt template.
	PromptSourceCustom PromptSource = "custom"
	// PromptSourceManual uses free-form text entered by the operator.
	PromptSourceManual PromptSource = "manual"
)

// Timeout bounds for auto-submission, in seconds.
const (
	MinTimeoutSeconds = 5
	MaxTimeoutSeconds = 3600
)

// AutoSubmitConfig controls timeout-driven auto-submission of responses.
type AutoSubmitConfig struct {
	Enabled        bool         `json:"enabled"`
	TimeoutSeconds int          `json:"timeout_seconds"`
	PromptSource   PromptSource `json:"prompt_source"`
	// CustomPromptID is meaningful only when PromptSource is "custom".
	CustomPromptID string `json:"custom_prompt_id,omitempty"`
	// ManualPrompt is meaningful only when PromptSource is "manual".
	ManualPrompt string `json:"manual_prompt,omitempty"`
}

// DefaultAutoSubmitConfig returns the compiled-in defaults used when no
// configuration has been persisted yet or a load fails.
func DefaultAutoSubmitConfig() AutoSubmitConfig {
	return AutoSubmitConfig{
		Enabled:        false,
		TimeoutSeconds: 60,
		PromptSource:   PromptSourceContinue,
	}
}

// Normalized returns a copy with the timeout clamped to the valid range and
// an unknown prompt source replaced by the continue source.
func (c AutoSubmitConfig) Normalized() AutoSubmitConfig {
	if c.TimeoutSeconds < MinTimeoutSeconds {
		c.TimeoutSeconds = MinTimeoutSeconds
	}
	if c.TimeoutSeconds > MaxTimeoutSeconds {
		c.TimeoutSeconds = MaxTimeoutSeconds
	}
	switch c.PromptSource {
	case PromptSourceContinue, PromptSourceCustom, PromptSourceManual:
	default:
		c.PromptSource = PromptSourceContinue
	}
	return c
}

// TemplateKind classifies prompt templates.
type TemplateKind string

const (
	// TemplateKindNormal templates are selectable as custom auto-submit prompts.
	TemplateKindNormal TemplateKind = "normal"
	// TemplateKindSystem templates are managed internally and never offered
	// as auto-submit targets.
	TemplateKindSystem TemplateKind = "system"
)

// PromptTemplate is a named, reusable prompt.
type PromptTemplate struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Content string       `json:"content"`
	Kind    TemplateKind `json:"kind"`
}
